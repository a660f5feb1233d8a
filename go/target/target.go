// Package target defines the contracts the loader borrows from its host:
// a memory abstraction to map and patch the guest image into, and a
// symbol resolution oracle for anything the binary doesn't define itself.
// Nothing in this package implements those contracts — qbdl/target/sim and
// qbdl/target/uctarget do that — so the loader can be unit tested against
// a fake and run for real against either.
package target

import "github.com/lunixbochs/qbdl/go/models"

// Memory is the subset of a virtual address space the loader needs:
// reserve a region, copy bytes into it, and read/write pointer-sized
// words honoring the guest's width and endianness.
type Memory interface {
	Mmap(hint, size uint64) uint64
	Write(dstHostAddr uint64, src []byte)
	Read(dst []byte, srcHostAddr uint64)
	WritePtr(arch models.Arch, dstHostAddr uint64, value uint64)
	ReadPtr(arch models.Arch, hostAddr uint64) uint64
}

// Symlinker resolves a symbol the binary itself doesn't define. It is
// trusted: the loader never validates what comes back, by design (see
// spec.md §6.1) — a bogus answer is the engine's bug, not the loader's to
// catch.
type Symlinker interface {
	Symlink(loaderHandle uintptr, sym models.Symbol) uint64
}

// TrampolineFunc is the callback a TargetSystem invokes when the guest
// enters the address it handed back from InstallTrampoline: loaderHandle
// is whatever opaque value the loader wrote into GOT[1], hint is
// architecture-dependent (spec.md §4.6). Its return value is the resolved
// host address of the symbol, which the caller (the engine's hook) is
// responsible for feeding back to the guest per its own calling
// convention — the loader only computes the answer.
type TrampolineFunc func(loaderHandle uintptr, hint uint64) uint64

// TargetSystem bundles the memory abstraction, the symbol oracle, and the
// small policy hooks the loader needs before it can map anything: whether
// this engine's ABI can run the binary at all, where it would prefer the
// image land, and — for lazy binding — a way to turn a Go callback into
// something the guest can actually call through GOT[2].
type TargetSystem interface {
	Symlinker
	Mem() Memory
	Supports(bin models.Binary) bool
	BaseAddressHint(imagebase, size uint64) uint64

	// InstallTrampoline arranges for fn to run when the guest transfers
	// control to the returned address, and returns that address. An
	// engine with no real execution model (like the simulator) may
	// return a fixed, never-visited sentinel — nothing will ever call
	// fn, which is fine, since nothing runs.
	InstallTrampoline(fn TrampolineFunc) uint64
}
