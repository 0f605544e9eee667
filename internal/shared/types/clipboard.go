package types

// ClipboardOp distinguishes cut from copy
type ClipboardOp string

const (
	OpCut  ClipboardOp = "cut"
	OpCopy ClipboardOp = "copy"
)

// Clipboard is the single shared cut/copy record. A nil *Clipboard means
// nothing is on the clipboard.
type Clipboard struct {
	SourcePaths []string    `json:"sourcePaths"`
	Operation   ClipboardOp `json:"operation"`
}

// MarkKind is the per-path visual tag shown while paths sit on the clipboard
type MarkKind string

const (
	MarkCut  MarkKind = "cut"
	MarkCopy MarkKind = "copy"
)
