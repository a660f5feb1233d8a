// Package uctarget is a target.TargetSystem backed by a real unicorn-engine
// CPU. It exists alongside qbdl/target/sim so the same loader can run
// against either a paper simulation or an emulated guest, grounded on the
// teacher's own go/cpu/unicorn wrapper and its per-arch ABI setup in
// go/arch/x86_64.
package uctarget

import (
	"github.com/pkg/errors"
	uc "github.com/unicorn-engine/unicorn/bindings/go/unicorn"

	"github.com/lunixbochs/qbdl/go/models"
	"github.com/lunixbochs/qbdl/go/target"
)

// archInfo carries the unicorn arch/mode pair and the register the
// trampoline hook reads its hint from, per architecture.
type archInfo struct {
	Arch, Mode int
	HintReg    int
}

var archTable = map[models.Machine]archInfo{
	models.MachineX86_64:  {uc.ARCH_X86, uc.MODE_64, uc.X86_REG_RAX},
	models.MachineAArch64: {uc.ARCH_ARM64, uc.MODE_ARM, uc.ARM64_REG_X0},
}

// Engine wraps a live unicorn.Unicorn as a target.TargetSystem. The zero
// value is not usable; build one with New.
type Engine struct {
	U      uc.Unicorn
	arch   archInfo
	next   uint64
	table  SymbolTable
	hookOn bool
}

// SymbolTable is the same seed-and-lookup oracle qbdl/target/sim uses,
// reused here so callers configure both engines identically.
type SymbolTable map[string]uint64

// New opens a unicorn CPU for machine and reserves base as the first
// address Mmap will hand out.
func New(machine models.Machine, base uint64) (*Engine, error) {
	info, ok := archTable[machine]
	if !ok {
		return nil, errors.Errorf("uctarget: unsupported machine %s", machine)
	}
	u, err := uc.NewUnicorn(info.Arch, info.Mode)
	if err != nil {
		return nil, errors.Wrap(err, "uctarget: NewUnicorn failed")
	}
	return &Engine{U: u, arch: info, next: base, table: SymbolTable{}}, nil
}

// Table exposes the symbol oracle for the caller to populate before loading.
func (e *Engine) Table() SymbolTable { return e.table }

// Run starts the CPU at entry and runs until it halts or faults, mirroring
// the teacher's usercorn.go Run(), which calls u.Uc.Start(u.Entry, 0).
func (e *Engine) Run(entry uint64) error {
	return e.U.Start(entry, 0)
}

func (e *Engine) Supports(bin models.Binary) bool {
	info, ok := archTable[bin.Machine()]
	return ok && info == e.arch
}

// BaseAddressHint ignores imagebase, same rationale as qbdl/target/sim:
// unicorn's address space is private to this process, there is nothing to
// collide with.
func (e *Engine) BaseAddressHint(imagebase, size uint64) uint64 {
	return 0
}

func (e *Engine) Symlink(loaderHandle uintptr, sym models.Symbol) uint64 {
	return e.table[sym.Name]
}

func (e *Engine) Mem() target.Memory { return &memory{e: e} }

// InstallTrampoline maps a small scratch page (if one isn't already
// reserved) and adds a UC_HOOK_CODE hook over it, so executing any address
// in that page invokes fn. No instruction is written into the page; the
// hook stores fn's result in the hint register and does not change the
// program counter. This mirrors the
// teacher's x86_64.AbiInit, which hooks the SYSCALL instruction rather than
// an address range; qbdl instead hooks a fixed address because PLT stubs
// jump to GOT[2] directly rather than trapping through an instruction.
func (e *Engine) InstallTrampoline(fn target.TrampolineFunc) uint64 {
	const trampolinePage = 0x7fff_f000
	const pageSize = 0x1000
	if !e.hookOn {
		if err := e.U.MemMap(trampolinePage, pageSize); err == nil {
			e.hookOn = true
			e.U.HookAdd(uc.HOOK_CODE, func(_ uc.Unicorn, addr uint64, size uint32) {
				hint, _ := e.U.RegRead(e.arch.HintReg)
				handle, _ := e.U.RegRead(gotSelfReg(e.arch))
				resolved := fn(uintptr(handle), hint)
				e.U.RegWrite(e.arch.HintReg, resolved)
			}, trampolinePage, trampolinePage+pageSize)
		}
	}
	return trampolinePage
}

// gotSelfReg names the register the loader's GOT[1] handle is expected to
// travel in on entry to the trampoline. There's no ELF-mandated register for
// this since GOT[1] is a qbdl convention rather than a platform ABI one, so
// this is a design choice documented in DESIGN.md rather than something
// derived from a spec.
func gotSelfReg(info archInfo) int {
	switch info.HintReg {
	case uc.X86_REG_RAX:
		return uc.X86_REG_RBX
	default:
		return uc.ARM64_REG_X1
	}
}

// memory adapts Engine to target.Memory by delegating to the underlying
// unicorn.Unicorn's MemMap/MemWrite/MemRead calls.
type memory struct{ e *Engine }

func (m *memory) Mmap(hint, size uint64) uint64 {
	addr := hint
	if addr == 0 {
		addr = m.e.next
	}
	aligned, alignedSize := pageAlign(addr, size)
	if err := m.e.U.MemMapProt(aligned, alignedSize, uc.PROT_ALL); err != nil {
		return 0
	}
	if aligned+alignedSize > m.e.next {
		m.e.next = aligned + alignedSize
	}
	return addr
}

func pageAlign(addr, size uint64) (uint64, uint64) {
	const pageSize = 0x1000
	base := addr &^ (pageSize - 1)
	end := (addr + size + pageSize - 1) &^ (pageSize - 1)
	return base, end - base
}

func (m *memory) Write(dst uint64, src []byte) {
	m.e.U.MemWrite(dst, src)
}

func (m *memory) Read(dst []byte, src uint64) {
	buf, err := m.e.U.MemRead(src, uint64(len(dst)))
	if err != nil {
		return
	}
	copy(dst, buf)
}

func (m *memory) WritePtr(arch models.Arch, dst uint64, value uint64) {
	buf := make([]byte, arch.PointerSize())
	switch len(buf) {
	case 8:
		arch.ByteOrder.PutUint64(buf, value)
	case 4:
		arch.ByteOrder.PutUint32(buf, uint32(value))
	}
	m.Write(dst, buf)
}

func (m *memory) ReadPtr(arch models.Arch, src uint64) uint64 {
	buf := make([]byte, arch.PointerSize())
	m.Read(buf, src)
	switch len(buf) {
	case 8:
		return arch.ByteOrder.Uint64(buf)
	case 4:
		return uint64(arch.ByteOrder.Uint32(buf))
	}
	return 0
}
