package loader

import (
	"sort"

	"github.com/lunixbochs/fvbommel-util/sortorder"

	"github.com/lunixbochs/qbdl/go/models"
)

// sortedSymbols orders a name->Symbol index the way a human reading a
// symbol dump expects: "foo2" before "foo10". Grounded on the teacher's
// go/models/arch.go, which sorts register names the same way for RegDump.
func sortedSymbols(m map[string]models.Symbol) []models.Symbol {
	out := make([]models.Symbol, 0, len(m))
	for _, sym := range m {
		out = append(out, sym)
	}
	sort.Slice(out, func(i, j int) bool {
		return sortorder.NaturalLess(out[i].Name, out[j].Name)
	})
	return out
}
