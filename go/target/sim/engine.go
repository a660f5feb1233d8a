package sim

import (
	"github.com/lunixbochs/qbdl/go/models"
	"github.com/lunixbochs/qbdl/go/target"
)

// SymbolTable is the symlink oracle for the simulator: a caller seeds it
// with the host addresses of whatever external symbols the loaded binary
// will need, and Engine.Symlink looks them up by name. Anything not
// present resolves to 0, which in turn is what drives a real engine to
// fault on first use — the same "best-effort" posture spec.md §7
// describes for the real thing.
type SymbolTable map[string]uint64

// Engine is a minimal target.TargetSystem: the byte-slice Memory, a
// SymbolTable oracle, and support for any x86-64 or AArch64 binary. It
// exists so qbdl/loader's tests (and the CLI's --sim mode) don't need a
// real CPU emulator to exercise map/relocate/bind.
type Engine struct {
	Memory *Memory
	Table  SymbolTable
}

// NewEngine builds a simulator engine with a fresh Memory starting at
// base and an empty symbol table the caller can populate before loading.
func NewEngine(base uint64) *Engine {
	return &Engine{Memory: NewMemory(base), Table: SymbolTable{}}
}

func (e *Engine) Mem() target.Memory { return e.Memory }

func (e *Engine) Supports(bin models.Binary) bool {
	switch bin.Machine() {
	case models.MachineX86_64, models.MachineAArch64:
		return true
	default:
		return false
	}
}

// BaseAddressHint ignores the imagebase (the simulator doesn't care about
// collisions with a real process layout) and just asks Memory for size
// bytes from wherever it's tracking next.
func (e *Engine) BaseAddressHint(imagebase, size uint64) uint64 {
	return 0
}

func (e *Engine) Symlink(loaderHandle uintptr, sym models.Symbol) uint64 {
	return e.Table[sym.Name]
}

// trampolineSentinel is a fixed, never-mapped address the simulator hands
// back from InstallTrampoline. Nothing executes in this engine, so
// nothing ever jumps here; the value only exists so a test can assert
// that GOT[2] was written with something recognizable.
const trampolineSentinel = 0xffff_dead_0000_0000

func (e *Engine) InstallTrampoline(fn target.TrampolineFunc) uint64 {
	return trampolineSentinel
}
