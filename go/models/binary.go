package models

// Binary is the read-only view of a parsed ELF image that the loader
// consumes. It is deliberately narrow: everything about section headers,
// string tables, and the rest of the ELF format that the loader doesn't
// need to map/relocate/bind a binary is not exposed here. A concrete
// implementation lives in qbdl/elf; loader code and its tests only ever
// see this interface, so a test can hand-build a fake Binary without
// touching an actual ELF file.
type Binary interface {
	ImageBase() uint64
	VirtualSize() uint64
	Entrypoint() uint64
	Machine() Machine

	Segments() []Segment
	DynamicRelocations() []Relocation
	PltgotRelocations() []Relocation
	DynamicSymbols() []Symbol

	DynTag(tag DynTag) (uint64, bool)
	Symbol(name string) (Symbol, bool)
	HasSymbol(name string) bool
}
