// Package loader is the core of qbdl: the load/relocate/bind pipeline
// described in spec.md §4, built as a small set of pure functions over a
// Loader value rather than a class hierarchy. Grounded on the original
// QBDL::Loaders::ELF (original_source/src/loaders/ELF.cpp) for the
// algorithm, and on the teacher's go/loader/elf.go for the Go-idiomatic
// shape of an ELF-backed loader type.
package loader

import (
	"os"

	"github.com/pkg/errors"

	"github.com/lunixbochs/qbdl/go/elf"
	"github.com/lunixbochs/qbdl/go/logx"
	"github.com/lunixbochs/qbdl/go/models"
	"github.com/lunixbochs/qbdl/go/target"
)

// Loader maps, relocates, and (optionally) binds one ELF binary inside a
// host-provided target. It owns the parsed binary exclusively and holds
// only a borrowed reference to the engine; the mapped memory belongs to
// the engine and outlives the Loader's own destruction.
type Loader struct {
	baseAddress uint64
	binary      models.Binary
	engine      target.TargetSystem
	arch        models.Arch

	exports map[string]models.Symbol

	handle uintptr // registry key backing GOT[1]; assigned by FromBinary before load
	log    *logx.Logger
}

// FromFile opens path, parses it as an ELF image, checks the engine's
// compatibility policy, and runs load — the C8 Loader Facade's
// from_file constructor (spec.md §4.7/§6.2). It returns a nil *Loader
// (never an error-less nil, nil) on any failure, mirroring spec.md
// §6.2's Option<Loader> via Go's ordinary (value, error) idiom.
func FromFile(path string, engine target.TargetSystem, binding models.Binding) (*Loader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "loader: open failed")
	}
	defer f.Close()

	bin, err := elf.Parse(f)
	if err != nil {
		return nil, errors.Wrap(err, "loader: parse failed")
	}
	return FromBinary(bin, engine, binding)
}

// FromBinary adopts an already-parsed Binary. It is rejected outright if
// the engine reports it doesn't support the binary's ABI — spec.md §4.7's
// "reject if !engines.supports(binary)".
func FromBinary(bin models.Binary, engine target.TargetSystem, binding models.Binding) (*Loader, error) {
	if !engine.Supports(bin) {
		return nil, errors.New("loader: engine does not support this binary")
	}
	l := &Loader{
		binary: bin,
		engine: engine,
		arch:   models.ArchForMachine(bin.Machine()),
		log:    logx.Default(),
	}
	l.handle = register(l)
	l.buildExports()
	if err := l.load(binding); err != nil {
		unregister(l.handle)
		return nil, err
	}
	return l, nil
}

// SetLogger overrides the default stderr logger, e.g. so a CLI can route
// loader diagnostics through its own output.
func (l *Loader) SetLogger(lg *logx.Logger) { l.log = lg }

// BaseAddress is the host address the image was mapped at. It is 0 until
// load has succeeded, per spec.md §3's invariant.
func (l *Loader) BaseAddress() uint64 { return l.baseAddress }

// Binary exposes the parsed, owned binary for callers that need to
// inspect it beyond what the Loader itself surfaces.
func (l *Loader) Binary() models.Binary { return l.binary }

// Close releases the loader's registry entry. spec.md §5 notes the
// GOT[1] back-reference is a weak reference the guest must not outlive;
// Close is how a caller signals "guest is gone, this handle is no longer
// meaningful" so a stray write through a dangling GOT[1] resolves to a
// nil lookup instead of pointing at whatever the registry slot gets
// reused for next. Mapped memory itself belongs to the engine and is
// untouched here.
func (l *Loader) Close() {
	unregister(l.handle)
}

func (l *Loader) load(binding models.Binding) error {
	if err := l.mapSegments(); err != nil {
		return err
	}
	l.applyRelocations(l.binary.DynamicRelocations(), true)
	l.bind(binding)
	return nil
}
