package flow

// AnalyzerMask is a bitmask of pending analysis stages on a channel. The set
// of stages is part of the host's public contract so filters can label them
// without depending on host internals.
type AnalyzerMask uint32

const (
	AnReqInspectFE AnalyzerMask = 1 << iota
	AnReqWaitMsg
	AnReqMsgBody
	AnReqProcessFE
	AnReqSwitchingRules
	AnReqInspectBE
	AnReqProcessBE
	AnReqServerRules
	AnReqStickingRules
	AnReqTransferBody
	AnResInspect
	AnResWaitMsg
	AnResProcess
	AnResStoreRules
	AnResTransferBody
)

// AnReqAll covers every request-side stage.
const AnReqAll = AnReqInspectFE | AnReqWaitMsg | AnReqMsgBody | AnReqProcessFE |
	AnReqSwitchingRules | AnReqInspectBE | AnReqProcessBE | AnReqServerRules |
	AnReqStickingRules | AnReqTransferBody

// AnResAll covers every response-side stage.
const AnResAll = AnResInspect | AnResWaitMsg | AnResProcess | AnResStoreRules |
	AnResTransferBody

var analyzerLabels = map[AnalyzerMask]string{
	AnReqInspectFE:      "REQ_INSPECT_FE",
	AnReqWaitMsg:        "REQ_WAIT_MSG",
	AnReqMsgBody:        "REQ_MSG_BODY",
	AnReqProcessFE:      "REQ_PROCESS_FE",
	AnReqSwitchingRules: "REQ_SWITCHING_RULES",
	AnReqInspectBE:      "REQ_INSPECT_BE",
	AnReqProcessBE:      "REQ_PROCESS_BE",
	AnReqServerRules:    "REQ_SRV_RULES",
	AnReqStickingRules:  "REQ_STICKING_RULES",
	AnReqTransferBody:   "REQ_XFER_BODY",
	AnResInspect:        "RES_INSPECT",
	AnResWaitMsg:        "RES_WAIT_MSG",
	AnResProcess:        "RES_PROCESS",
	AnResStoreRules:     "RES_STORE_RULES",
	AnResTransferBody:   "RES_XFER_BODY",
}

// Label returns the human name of a single stage bit.
func (m AnalyzerMask) Label() string {
	if s, ok := analyzerLabels[m]; ok {
		return s
	}
	return "unknown"
}
