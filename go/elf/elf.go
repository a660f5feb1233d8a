// Package elf is the "pre-existing parser" spec.md treats as an external
// collaborator, made concrete: it turns an io.ReaderAt holding an ELF
// image into a models.Binary the loader can map, relocate, and bind.
//
// Grounded on the teacher's go/loader/elf.go (debug/elf-based ElfLoader),
// extended to surface dynamic relocations and DT_* tags, which the
// teacher's loader never needed since its only consumer was a CPU
// emulator, not a relocator.
package elf

import (
	"bytes"
	"debug/elf"
	"io"

	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"

	"github.com/lunixbochs/qbdl/go/models"
)

var elfMagic = []byte{0x7f, 0x45, 0x4c, 0x46}

// Match reports whether r looks like an ELF file, the same sniff-the-magic
// check the teacher's loader package runs before committing to a full
// parse (go/loader/elf.go's MatchElf).
func Match(r io.ReaderAt) bool {
	magic := make([]byte, 4)
	if _, err := r.ReadAt(magic, 0); err != nil {
		return false
	}
	return bytes.Equal(magic, elfMagic)
}

// Machine sniffs an ELF file's target machine without building a full
// Binary, so a caller can pick a compatible TargetSystem before paying
// for Parse's segment/symbol/relocation work.
func Machine(r io.ReaderAt) (models.Machine, error) {
	file, err := elf.NewFile(r)
	if err != nil {
		return models.MachineOther, errors.Wrap(err, "elf: not a valid ELF file")
	}
	return machineMap[file.Machine], nil
}

// Binary is the models.Binary implementation backed by debug/elf.
type Binary struct {
	file      *elf.File
	machine   models.Machine
	imagebase uint64
	virtsize  uint64

	segments []models.Segment
	dynsyms  []models.Symbol
	bySymbol map[string]models.Symbol

	dynTags  map[models.DynTag]uint64
	dynRelas []models.Relocation
	pltRelas []models.Relocation
}

var machineMap = map[elf.Machine]models.Machine{
	elf.EM_X86_64:  models.MachineX86_64,
	elf.EM_AARCH64: models.MachineAArch64,
}

// Parse reads the full ELF image from r and builds a Binary. Only the
// ELFCLASS64 binaries the loader's two supported architectures always are
// get parsed; anything else is a parse failure surfaced to the caller
// (who, per spec.md §7, turns that into a nil *Loader).
func Parse(r io.ReaderAt) (*Binary, error) {
	file, err := elf.NewFile(r)
	if err != nil {
		return nil, errors.Wrap(err, "elf: not a valid ELF file")
	}
	if file.Class != elf.ELFCLASS64 {
		return nil, errors.Errorf("elf: unsupported ELF class %s", file.Class)
	}

	b := &Binary{
		file:     file,
		machine:  machineMap[file.Machine],
		bySymbol: map[string]models.Symbol{},
		dynTags:  map[models.DynTag]uint64{},
	}

	if err := b.loadSegments(); err != nil {
		return nil, err
	}
	if err := b.loadDynamicSymbols(); err != nil {
		return nil, err
	}
	if err := b.loadDynTags(); err != nil {
		return nil, err
	}
	if err := b.loadRelocations(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Binary) loadSegments() error {
	var lowest uint64 = ^uint64(0)
	var highest uint64
	for _, prog := range b.file.Progs {
		if prog.Type != elf.PT_LOAD {
			continue
		}
		if prog.Vaddr < lowest {
			lowest = prog.Vaddr
		}
		if end := prog.Vaddr + prog.Memsz; end > highest {
			highest = end
		}
	}
	if lowest == ^uint64(0) {
		return errors.New("elf: no PT_LOAD segments")
	}
	b.imagebase = lowest
	b.virtsize = highest - lowest

	for _, prog := range b.file.Progs {
		if prog.Type != elf.PT_LOAD {
			continue
		}
		content := make([]byte, prog.Filesz)
		if _, err := io.ReadFull(prog.Open(), content); err != nil && err != io.EOF {
			return errors.Wrapf(err, "elf: reading PT_LOAD at 0x%x", prog.Vaddr)
		}
		b.segments = append(b.segments, models.Segment{
			Type:    models.SegLoad,
			Vaddr:   prog.Vaddr,
			Memsz:   prog.Memsz,
			Content: content,
		})
	}
	return nil
}

func (b *Binary) loadDynamicSymbols() error {
	syms, err := b.file.DynamicSymbols()
	if err != nil {
		// A binary with no dynamic symbol table (a static, non-PIE
		// executable) is still a valid, if relocation-free, load.
		return nil
	}
	for _, s := range syms {
		sym := models.Symbol{Name: s.Name, Value: s.Value, Size: s.Size}
		b.dynsyms = append(b.dynsyms, sym)
		b.bySymbol[s.Name] = sym
	}
	return nil
}

func (b *Binary) ImageBase() uint64             { return b.imagebase }
func (b *Binary) VirtualSize() uint64           { return b.virtsize }
func (b *Binary) Entrypoint() uint64            { return b.file.Entry }
func (b *Binary) Machine() models.Machine       { return b.machine }
func (b *Binary) Segments() []models.Segment    { return b.segments }
func (b *Binary) DynamicSymbols() []models.Symbol { return b.dynsyms }

func (b *Binary) DynamicRelocations() []models.Relocation { return b.dynRelas }
func (b *Binary) PltgotRelocations() []models.Relocation  { return b.pltRelas }

func (b *Binary) DynTag(tag models.DynTag) (uint64, bool) {
	v, ok := b.dynTags[tag]
	return v, ok
}

func (b *Binary) Symbol(name string) (models.Symbol, bool) {
	s, ok := b.bySymbol[name]
	return s, ok
}

func (b *Binary) HasSymbol(name string) bool {
	_, ok := b.bySymbol[name]
	return ok
}

// elf64Dyn mirrors Elf64_Dyn: a signed tag followed by a value/pointer
// union, decoded field-by-field with struc the same way the teacher's
// kernel/linux/elf_auxv.go decodes Elf64Auxv.
type elf64Dyn struct {
	Tag int64
	Val uint64
}

func (b *Binary) loadDynTags() error {
	sec := b.file.Section(".dynamic")
	if sec == nil {
		return nil
	}
	data, err := sec.Data()
	if err != nil {
		return errors.Wrap(err, "elf: reading .dynamic")
	}
	r := bytes.NewReader(data)
	for r.Len() >= 16 {
		var d elf64Dyn
		if err := struc.UnpackWithOrder(r, &d, b.file.ByteOrder); err != nil {
			return errors.Wrap(err, "elf: decoding Elf64_Dyn")
		}
		if d.Tag == int64(models.DT_NULL) {
			break
		}
		tag := models.DynTag(d.Tag)
		if _, exists := b.dynTags[tag]; !exists {
			b.dynTags[tag] = d.Val
		}
	}
	return nil
}

// elf64Rela mirrors Elf64_Rela.
type elf64Rela struct {
	Offset uint64
	Info   uint64
	Addend int64
}

func (b *Binary) loadRelocations() error {
	dyn, err := b.decodeRelaSection(".rela.dyn")
	if err != nil {
		return err
	}
	b.dynRelas = dyn

	plt, err := b.decodeRelaSection(".rela.plt")
	if err != nil {
		return err
	}
	b.pltRelas = plt
	return nil
}

func (b *Binary) decodeRelaSection(name string) ([]models.Relocation, error) {
	sec := b.file.Section(name)
	if sec == nil {
		return nil, nil
	}
	data, err := sec.Data()
	if err != nil {
		return nil, errors.Wrapf(err, "elf: reading %s", name)
	}
	syms, err := b.file.DynamicSymbols()
	if err != nil {
		syms = nil
	}

	r := bytes.NewReader(data)
	var out []models.Relocation
	for r.Len() >= 24 {
		var rela elf64Rela
		if err := struc.UnpackWithOrder(r, &rela, b.file.ByteOrder); err != nil {
			return nil, errors.Wrapf(err, "elf: decoding Elf64_Rela in %s", name)
		}
		symIdx := rela.Info >> 32
		rType := uint32(rela.Info & 0xffffffff)

		// debug/elf's DynamicSymbols() strips the null entry at raw ELF
		// index 0, so a raw index k lives at Go slice position k-1.
		var sym models.Symbol
		if symIdx >= 1 && int(symIdx) <= len(syms) {
			s := syms[symIdx-1]
			sym = models.Symbol{Name: s.Name, Value: s.Value, Size: s.Size}
		}

		out = append(out, models.Relocation{
			Address: rela.Offset,
			Type:    rType,
			Kind:    classify(b.machine, rType),
			Addend:  rela.Addend,
			Symbol:  sym,
		})
	}
	return out, nil
}

// Raw relocation type codes, x86-64 (System V AMD64 ABI) and AArch64
// (ELF for the ARM 64-bit architecture). Only the four per architecture
// spec.md names get mapped to a RelKind; everything else classifies as
// RelUnknown so the relocation engine logs and skips it.
const (
	rX86_64Relative = 8
	rX86_64GlobDat  = 6
	rX86_64JumpSlot = 7
	rX86_64Copy     = 5

	rAArch64Relative = 1027
	rAArch64GlobDat  = 1025
	rAArch64JumpSlot = 1026
	rAArch64Copy     = 1024
)

func classify(m models.Machine, rType uint32) models.RelKind {
	switch m {
	case models.MachineX86_64:
		switch rType {
		case rX86_64Relative:
			return models.RelRelative
		case rX86_64GlobDat:
			return models.RelGlobDat
		case rX86_64JumpSlot:
			return models.RelJumpSlot
		case rX86_64Copy:
			return models.RelCopy
		}
	case models.MachineAArch64:
		switch rType {
		case rAArch64Relative:
			return models.RelRelative
		case rAArch64GlobDat:
			return models.RelGlobDat
		case rAArch64JumpSlot:
			return models.RelJumpSlot
		case rAArch64Copy:
			return models.RelCopy
		}
	}
	return models.RelUnknown
}
