package loader

// rva converts an ELF virtual address into an image-relative offset: va -
// imagebase when va falls at or above the image base, or va unchanged
// otherwise (spec.md §3's invariant, covering the case of an address
// that's already relative, e.g. a DT_PLTGOT value smaller than
// imagebase).
func (l *Loader) rva(va uint64) uint64 {
	base := l.binary.ImageBase()
	if va >= base {
		return va - base
	}
	return va
}

// GetAddress maps an ELF virtual address to its host address: base +
// rva(va). Valid once BaseAddress is non-zero.
func (l *Loader) GetAddress(va uint64) uint64 {
	return l.baseAddress + l.rva(va)
}

// GetSymbolAddress returns the host address of a defined dynamic symbol,
// or 0 if the binary doesn't define one by that name.
func (l *Loader) GetSymbolAddress(name string) uint64 {
	sym, ok := l.binary.Symbol(name)
	if !ok || !sym.Defined() {
		return 0
	}
	return l.GetAddress(sym.Value)
}

// Entrypoint is the host address execution should start at.
func (l *Loader) Entrypoint() uint64 {
	return l.GetAddress(l.binary.Entrypoint())
}
