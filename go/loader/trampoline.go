package loader

import (
	"sync"

	"github.com/lunixbochs/qbdl/go/models"
)

// registry maps the opaque handles written into GOT[1] back to the
// *Loader they belong to. spec.md §9 calls out that a raw host pointer
// only works for an in-process engine and suggests a stable handle table
// as the portable alternative; this implementation uses the handle table
// unconditionally; see DESIGN.md.
var (
	registryMu sync.Mutex
	registry   = map[uintptr]*Loader{}
	nextHandle uintptr = 1
)

func register(l *Loader) uintptr {
	registryMu.Lock()
	defer registryMu.Unlock()
	h := nextHandle
	nextHandle++
	registry[h] = l
	return h
}

func lookup(h uintptr) *Loader {
	registryMu.Lock()
	defer registryMu.Unlock()
	return registry[h]
}

func unregister(h uintptr) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(registry, h)
}

// Resolve is the Lazy Trampoline (C7): the function a guest's PLT
// resolution stub ultimately reaches through GOT[2]. loaderHandle is
// whatever bindLazy wrote into GOT[1]; hint's meaning depends on the
// binary's architecture (spec.md §4.6). It returns the resolved host
// address, or 0 (with an error logged) if hint decodes to an index
// outside the PLT/GOT relocation table.
//
// This satisfies target.TrampolineFunc, so any TargetSystem can hand it
// straight to InstallTrampoline.
func Resolve(loaderHandle uintptr, hint uint64) uint64 {
	l := lookup(loaderHandle)
	if l == nil {
		return 0
	}

	idx, ok := l.pltIndex(hint)
	pltgot := l.binary.PltgotRelocations()
	if !ok || idx >= uint64(len(pltgot)) {
		l.log.Errorf("PLT index out of range: %d", idx)
		return 0
	}

	r := pltgot[idx]
	addr := l.engine.Symlink(l.handle, r.Symbol)
	l.engine.Mem().WritePtr(l.arch, l.GetAddress(r.Address), addr)
	return addr
}

// pltIndex decodes hint into a PLT/GOT relocation index per spec.md
// §4.6. x86-64 stubs push the index directly; AArch64 stubs load the
// GOT slot's own host address, which has to be converted back into an
// index by subtracting the GOT base and the three ABI-reserved entries.
func (l *Loader) pltIndex(hint uint64) (uint64, bool) {
	switch l.binary.Machine() {
	case models.MachineAArch64:
		gotVA, ok := l.binary.DynTag(models.DT_PLTGOT)
		if !ok {
			return 0, false
		}
		gotBase := l.GetAddress(gotVA)
		if hint < gotBase {
			return 0, false
		}
		slot := (hint - gotBase) / l.arch.PointerSize()
		if slot < 3 {
			return 0, false
		}
		return slot - 3, true
	default:
		return hint, true
	}
}
