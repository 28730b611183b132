package flow

// BlockType identifies the kind of a message block.
type BlockType uint8

const (
	BlockUnknown BlockType = iota
	// BlockHeader carries one header name/value pair.
	BlockHeader
	// BlockEOH marks the end of the header section.
	BlockEOH
	// BlockData carries payload bytes.
	BlockData
	// BlockTrailer carries one trailer name/value pair.
	BlockTrailer
	// BlockEOM marks the end of the message.
	BlockEOM
)

func (t BlockType) String() string {
	switch t {
	case BlockHeader:
		return "header"
	case BlockEOH:
		return "eoh"
	case BlockData:
		return "data"
	case BlockTrailer:
		return "trailer"
	case BlockEOM:
		return "eom"
	default:
		return "unknown"
	}
}

// Block is one typed unit of a decoded message. Data blocks carry payload in
// Value; header and trailer blocks carry a Name/Value pair; end markers carry
// nothing.
type Block struct {
	Type  BlockType
	Name  []byte
	Value []byte
}

// Size returns the byte span of the block value.
func (blk *Block) Size() int { return len(blk.Value) }

// Message is the block-structured representation of a higher-level message,
// built and owned by the host decoder. Filters only read it.
type Message struct {
	blocks []*Block
}

// NewMessage creates an empty message.
func NewMessage() *Message { return &Message{} }

// Append adds a block of the given type.
func (m *Message) Append(t BlockType, name, value []byte) *Block {
	blk := &Block{Type: t, Name: name, Value: value}
	m.blocks = append(m.blocks, blk)
	return blk
}

// AppendData adds a payload block.
func (m *Message) AppendData(p []byte) *Block {
	return m.Append(BlockData, nil, p)
}

// Blocks returns the blocks in message order.
func (m *Message) Blocks() []*Block { return m.blocks }

// Len returns the total byte span across all blocks.
func (m *Message) Len() int {
	total := 0
	for _, blk := range m.blocks {
		total += blk.Size()
	}
	return total
}

// DataLen returns the byte span across data blocks only.
func (m *Message) DataLen() int {
	total := 0
	for _, blk := range m.blocks {
		if blk.Type == BlockData {
			total += blk.Size()
		}
	}
	return total
}
