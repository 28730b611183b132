package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/spf13/cobra"

	"firestige.xyz/flowtrace/internal/config"
	"firestige.xyz/flowtrace/internal/engine"
	"firestige.xyz/flowtrace/internal/log"
	"firestige.xyz/flowtrace/internal/tracefilter"
	"firestige.xyz/flowtrace/pkg/flow"
)

var (
	replayFile     string
	replayPipeline string
)

// replayCmd feeds TCP payloads from a pcap capture through a configured
// pipeline, so the filters see the segment boundaries real traffic had.
var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay TCP payloads from a pcap file through a pipeline",
	Long: `Replay reads a pcap capture, extracts TCP segment payloads in file
order, and pushes them as chunks through one configured pipeline. Each
segment becomes one chunk, so the filters observe the same data
boundaries the capture recorded.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(configFile)
		if err != nil {
			exitWithError("failed to load config", err)
		}
		if cfg.Log != nil {
			if err := log.Init(cfg.Log); err != nil {
				exitWithError("failed to init logger", err)
			}
		}

		var pc *config.PipelineConfig
		for i := range cfg.Pipelines {
			if replayPipeline == "" || cfg.Pipelines[i].ID == replayPipeline {
				pc = &cfg.Pipelines[i]
				break
			}
		}
		if pc == nil {
			exitWithError(fmt.Sprintf("pipeline %q not found in config", replayPipeline), nil)
		}

		chunks, err := readTCPPayloads(replayFile)
		if err != nil {
			exitWithError("failed to read capture", err)
		}
		if len(chunks) == 0 {
			exitWithError("capture contains no TCP payload", nil)
		}

		reg := flow.NewRegistry()
		if err := reg.Register(tracefilter.Keyword, tracefilter.ParseArgs); err != nil {
			exitWithError("failed to register trace filter", err)
		}

		eng := engine.New(reg, cfg.Engine.BufferSize)
		px, err := eng.BuildPipeline(*pc)
		if err != nil {
			exitWithError("failed to build pipeline", err)
		}

		stats, err := eng.RunStream(px, chunks)
		if err != nil {
			exitWithError("replay stream failed", err)
		}
		fmt.Printf("pipeline %s replay: segments=%d in=%d forwarded=%d wakeups=%d rounds=%d\n",
			px.ID, len(chunks), stats.BytesIn, stats.BytesForwarded, stats.Wakeups, stats.Rounds)

		eng.ClosePipeline(px)
	},
}

func init() {
	replayCmd.Flags().StringVarP(&replayFile, "file", "f", "", "pcap capture file to replay")
	replayCmd.Flags().StringVarP(&replayPipeline, "pipeline", "P", "",
		"pipeline id to replay into (default: first configured)")
	replayCmd.MarkFlagRequired("file")
}

// readTCPPayloads extracts non-empty TCP payloads from a pcap file in
// capture order.
func readTCPPayloads(path string) ([][]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture: %w", err)
	}
	defer f.Close()

	r, err := pcapgo.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse capture: %w", err)
	}

	var chunks [][]byte
	source := gopacket.NewPacketSource(r, r.LinkType())
	for {
		packet, err := source.NextPacket()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode packet: %w", err)
		}
		tcp, ok := packet.TransportLayer().(*layers.TCP)
		if !ok || len(tcp.Payload) == 0 {
			continue
		}
		payload := make([]byte, len(tcp.Payload))
		copy(payload, tcp.Payload)
		chunks = append(chunks, payload)
	}
	return chunks, nil
}
