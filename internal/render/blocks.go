// Package render turns records into ordered display payloads. Everything
// here is a pure transformation: the same record always renders to the same
// block sequence, so a re-render after any mutation is idempotent.
package render

// BlockKind discriminates display block types.
type BlockKind string

const (
	BlockText      BlockKind = "text"
	BlockSeparator BlockKind = "separator"
)

// Block is one element of a display payload.
type Block struct {
	Kind BlockKind
	Text string
}

// Blocks is an ordered display payload for the platform to render.
type Blocks []Block

// Text builds a text block.
func Text(s string) Block {
	return Block{Kind: BlockText, Text: s}
}

// Separator builds a separator block.
func Separator() Block {
	return Block{Kind: BlockSeparator}
}

// Link is a parsed markdown-style link used for button rows.
type Link struct {
	Title string
	URL   string
}
