package models

// SegType mirrors the ELF program header p_type values the loader
// distinguishes. Only PT_LOAD is ever mapped, and qbdl/elf only emits
// PT_LOAD segments; the segment mapper skips any segment of another type
// that a Binary implementation supplies.
type SegType int

const (
	SegUnknown SegType = iota
	SegLoad
	SegDynamic
	SegInterp
	SegOther
)

// Segment is one ELF program header plus its file content. Content is nil
// or short for the BSS tail beyond the file image; the segment mapper
// relies on the target Memory's zero-fill guarantee for that tail rather
// than writing explicit zero bytes.
type Segment struct {
	Type    SegType
	Vaddr   uint64
	Memsz   uint64
	Content []byte
}
