package loader

import "github.com/lunixbochs/qbdl/go/models"

// bind implements the Binding Strategy (C6). The dynamic-relocations pass
// has already run by the time this is called (spec.md §5: segment
// mapping, then the dynamic pass, then PLT/GOT).
func (l *Loader) bind(binding models.Binding) {
	switch {
	case binding == models.NotBind:
		return
	case binding == models.Now:
		l.applyRelocations(l.binary.PltgotRelocations(), false)
	case binding.IsLazy():
		l.bindLazy()
	}
}

// bindLazy sets up the System V lazy-binding protocol: GOT[1] becomes a
// scratch reference to this loader, GOT[2] becomes the trampoline's
// entry point, and every PLT/GOT relocation runs once with isLazy=true
// so JUMP_SLOT entries get rebased to point back at their own PLT stub
// instead of an external address (spec.md §4.5).
func (l *Loader) bindLazy() {
	gotVA, ok := l.binary.DynTag(models.DT_PLTGOT)
	if !ok {
		l.log.Warnf("missing DT_PLTGOT, can't lazy-bind this binary")
		return
	}
	got := l.GetAddress(gotVA)
	ptrSize := l.arch.PointerSize()
	mem := l.engine.Mem()

	mem.WritePtr(l.arch, got+1*ptrSize, uint64(l.handle))

	trampolineAddr := l.engine.InstallTrampoline(Resolve)
	mem.WritePtr(l.arch, got+2*ptrSize, trampolineAddr)

	l.applyRelocations(l.binary.PltgotRelocations(), true)
}
