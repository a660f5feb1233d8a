package loader

import "github.com/lunixbochs/qbdl/go/models"

// fakeBinary is a hand-built models.Binary double, in the same spirit as
// the teacher's models/mock.Usercorn: a struct of fields standing in for
// what would otherwise be parsed out of a real ELF file, so the pipeline
// can be exercised without one.
type fakeBinary struct {
	imagebase   uint64
	virtualsize uint64
	entry       uint64
	machine     models.Machine

	segments []models.Segment
	dynrel   []models.Relocation
	pltrel   []models.Relocation
	syms     []models.Symbol
	dyntags  map[models.DynTag]uint64
}

func (f *fakeBinary) ImageBase() uint64                    { return f.imagebase }
func (f *fakeBinary) VirtualSize() uint64                  { return f.virtualsize }
func (f *fakeBinary) Entrypoint() uint64                   { return f.entry }
func (f *fakeBinary) Machine() models.Machine              { return f.machine }
func (f *fakeBinary) Segments() []models.Segment           { return f.segments }
func (f *fakeBinary) DynamicRelocations() []models.Relocation { return f.dynrel }
func (f *fakeBinary) PltgotRelocations() []models.Relocation  { return f.pltrel }
func (f *fakeBinary) DynamicSymbols() []models.Symbol      { return f.syms }

func (f *fakeBinary) DynTag(tag models.DynTag) (uint64, bool) {
	v, ok := f.dyntags[tag]
	return v, ok
}

func (f *fakeBinary) Symbol(name string) (models.Symbol, bool) {
	for _, s := range f.syms {
		if s.Name == name {
			return s, true
		}
	}
	return models.Symbol{}, false
}

func (f *fakeBinary) HasSymbol(name string) bool {
	_, ok := f.Symbol(name)
	return ok
}
