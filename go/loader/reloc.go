package loader

import (
	"github.com/lunixbochs/qbdl/go/models"
)

// relocator applies one relocation. isLazy distinguishes the two calling
// contexts spec.md §4.4 defines: true during the initial
// DynamicRelocations pass and during lazy PLT/GOT setup, false when
// binding eagerly.
type relocator func(l *Loader, r models.Relocation, isLazy bool)

// relocators is the architecture dispatch table (C5). Two entries, one
// per supported machine, each a pure function of (loader, relocation,
// isLazy) per spec.md §9's design note — kept as separate named
// functions, mirroring the original QBDL::Loaders::ELF::reloc_x86_64 and
// reloc_aarch64, even though their bodies apply the same rule table:
// that mirrors structure future architecture-specific divergence would
// need, rather than collapsing to one generic function today.
var relocators = map[models.Machine]relocator{
	models.MachineX86_64:  relocX8664,
	models.MachineAArch64: relocAArch64,
}

// applyRelocations walks relocs in order, applying each through the
// dispatch table for the binary's machine. An unsupported machine logs
// once and skips the whole pass; load still succeeds, execution will
// likely fault, exactly as spec.md §4.4 describes.
func (l *Loader) applyRelocations(relocs []models.Relocation, isLazy bool) {
	apply, ok := relocators[l.binary.Machine()]
	if !ok {
		l.log.Warnf("relocations not supported for architecture %s", l.binary.Machine())
		return
	}
	for _, r := range relocs {
		apply(l, r, isLazy)
	}
}

// relocCommon is the rule table from spec.md §4.4, identical for both
// supported architectures; relocX8664 and relocAArch64 both call it so
// an architecture that someday needs to diverge has a single
// per-architecture seam to edit without touching the shared rule.
func relocCommon(l *Loader, r models.Relocation, isLazy bool) {
	// r.Address is an ELF virtual address in the same numbering space as
	// symbol values and the entrypoint, so it goes through the same
	// base+rva mapping as everything else — see DESIGN.md's resolution
	// of the address-mapper open question.
	slot := l.GetAddress(r.Address)
	mem := l.engine.Mem()

	switch r.Kind {
	case models.RelRelative:
		mem.WritePtr(l.arch, slot, l.baseAddress+uint64(r.Addend))

	case models.RelJumpSlot:
		if addr := l.resolve(r.Symbol); addr != 0 {
			mem.WritePtr(l.arch, slot, addr+uint64(r.Addend))
			return
		}
		if isLazy {
			v := mem.ReadPtr(l.arch, slot)
			mem.WritePtr(l.arch, slot, l.baseAddress+v)
			return
		}
		sym := l.engine.Symlink(l.handle, r.Symbol)
		mem.WritePtr(l.arch, slot, sym+uint64(r.Addend))

	case models.RelGlobDat:
		if addr := l.resolve(r.Symbol); addr != 0 {
			mem.WritePtr(l.arch, slot, addr+uint64(r.Addend))
			return
		}
		sym := l.engine.Symlink(l.handle, r.Symbol)
		mem.WritePtr(l.arch, slot, sym+uint64(r.Addend))

	case models.RelCopy:
		src := l.engine.Symlink(l.handle, r.Symbol)
		buf := make([]byte, r.Symbol.Size)
		mem.Read(buf, src)
		mem.Write(slot, buf)

	default:
		l.log.Warnf("relocation type %d (%s) is not supported", r.Type, r.Kind)
	}
}

func relocX8664(l *Loader, r models.Relocation, isLazy bool)  { relocCommon(l, r, isLazy) }
func relocAArch64(l *Loader, r models.Relocation, isLazy bool) { relocCommon(l, r, isLazy) }
