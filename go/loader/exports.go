package loader

import "github.com/lunixbochs/qbdl/go/models"

// buildExports scans the binary's dynamic symbols once at construction
// and indexes every defined one by name. Iterating the binary's own
// order and assigning into a map naturally gives "last write wins" on a
// name collision, which spec.md §4.2 calls undefined-but-observed ELF
// behavior rather than an error.
func (l *Loader) buildExports() {
	l.exports = make(map[string]models.Symbol)
	for _, sym := range l.binary.DynamicSymbols() {
		if sym.Defined() {
			l.exports[sym.Name] = sym
		}
	}
}

// resolve is the internal resolver (C3): it answers from the export
// index before the relocation engine ever consults the external symlink
// oracle. Statically linked components sometimes generate PLT/GOT
// entries for symbols the binary defines itself; this short-circuits
// those without a round trip through the engine.
func (l *Loader) resolve(sym models.Symbol) uint64 {
	found, ok := l.exports[sym.Name]
	if !ok {
		return 0
	}
	return l.GetAddress(found.Value)
}

// DumpExports returns the export index's symbols in natural name order —
// a debug accessor the CLI's "load --dump-exports" flag uses; not part of
// the load/relocate/bind pipeline itself.
func (l *Loader) DumpExports() []models.Symbol {
	return sortedSymbols(l.exports)
}
