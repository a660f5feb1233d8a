package elf

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/lunixbochs/qbdl/go/models"
)

func TestMatch(t *testing.T) {
	if !Match(bytes.NewReader([]byte{0x7f, 'E', 'L', 'F', 1, 2, 3})) {
		t.Fatal("Match() rejected a valid ELF magic")
	}
	if Match(bytes.NewReader([]byte("not an elf"))) {
		t.Fatal("Match() accepted non-ELF bytes")
	}
	if Match(bytes.NewReader(nil)) {
		t.Fatal("Match() accepted an empty reader")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse(bytes.NewReader([]byte("garbage"))); err == nil {
		t.Fatal("Parse() accepted non-ELF bytes")
	}
}

// buildTestELF hand-assembles a minimal little-endian ELF64/x86-64 image:
// one PT_LOAD segment spanning the whole file, one dynamic symbol
// ("malloc", undefined), one R_X86_64_JUMP_SLOT relocation against it in
// .rela.plt, and a .dynamic section carrying DT_PLTGOT. Just enough for
// debug/elf and this package's own section decoding to exercise every
// field Parse reads.
func buildTestELF(t *testing.T) []byte {
	t.Helper()

	const (
		ehdrSize = 64
		phdrSize = 56
		shdrSize = 64
	)

	dynstr := []byte("\x00malloc\x00")
	mallocNameOff := uint32(1)

	dynsym := new(bytes.Buffer)
	// null symbol
	binary.Write(dynsym, binary.LittleEndian, elf64Sym{})
	// malloc, undefined
	binary.Write(dynsym, binary.LittleEndian, elf64Sym{Name: mallocNameOff})

	relaPlt := new(bytes.Buffer)
	binary.Write(relaPlt, binary.LittleEndian, elf64Rela{
		Offset: 0x402028,
		Info:   uint64(1)<<32 | uint64(rX86_64JumpSlot),
		Addend: 0,
	})

	dynamic := new(bytes.Buffer)
	binary.Write(dynamic, binary.LittleEndian, elf64Dyn{Tag: 3, Val: 0x403000}) // DT_PLTGOT
	binary.Write(dynamic, binary.LittleEndian, elf64Dyn{Tag: 0, Val: 0})        // DT_NULL

	shstrtab := []byte("\x00.dynsym\x00.dynstr\x00.rela.plt\x00.dynamic\x00.shstrtab\x00")
	nameOff := func(name string) uint32 {
		i := bytes.Index(shstrtab, append([]byte(name), 0))
		if i < 0 {
			t.Fatalf("name %q not in shstrtab", name)
		}
		return uint32(i)
	}

	dataStart := uint64(ehdrSize + phdrSize)
	sections := []struct {
		name string
		data []byte
	}{
		{".dynsym", dynsym.Bytes()},
		{".dynstr", dynstr},
		{".rela.plt", relaPlt.Bytes()},
		{".dynamic", dynamic.Bytes()},
		{".shstrtab", shstrtab},
	}

	offsets := make([]uint64, len(sections))
	off := dataStart
	for i, s := range sections {
		offsets[i] = off
		off += uint64(len(s.data))
	}

	var content bytes.Buffer
	for _, s := range sections {
		content.Write(s.data)
	}

	entry := uint64(0x400000)
	shoff := dataStart + uint64(content.Len())

	out := new(bytes.Buffer)
	// e_ident
	out.Write([]byte{0x7f, 'E', 'L', 'F', 2, 1, 1, 0})
	out.Write(make([]byte, 8))
	binary.Write(out, binary.LittleEndian, uint16(3))  // e_type ET_DYN
	binary.Write(out, binary.LittleEndian, uint16(62)) // e_machine EM_X86_64
	binary.Write(out, binary.LittleEndian, uint32(1))  // e_version
	binary.Write(out, binary.LittleEndian, uint64(entry+0x10))
	binary.Write(out, binary.LittleEndian, uint64(ehdrSize)) // e_phoff
	binary.Write(out, binary.LittleEndian, shoff)             // e_shoff
	binary.Write(out, binary.LittleEndian, uint32(0))         // e_flags
	binary.Write(out, binary.LittleEndian, uint16(ehdrSize))  // e_ehsize
	binary.Write(out, binary.LittleEndian, uint16(phdrSize))  // e_phentsize
	binary.Write(out, binary.LittleEndian, uint16(1))         // e_phnum
	binary.Write(out, binary.LittleEndian, uint16(shdrSize))  // e_shentsize
	binary.Write(out, binary.LittleEndian, uint16(len(sections)+1)) // e_shnum
	binary.Write(out, binary.LittleEndian, uint16(len(sections)))   // e_shstrndx

	// program header: one PT_LOAD spanning the whole file
	binary.Write(out, binary.LittleEndian, uint32(1)) // p_type PT_LOAD
	binary.Write(out, binary.LittleEndian, uint32(7)) // p_flags RWX
	binary.Write(out, binary.LittleEndian, uint64(0)) // p_offset
	binary.Write(out, binary.LittleEndian, entry)     // p_vaddr
	binary.Write(out, binary.LittleEndian, entry)     // p_paddr
	binary.Write(out, binary.LittleEndian, shoff+uint64(shdrSize)*uint64(len(sections)+1)) // p_filesz, generous
	binary.Write(out, binary.LittleEndian, shoff+uint64(shdrSize)*uint64(len(sections)+1)) // p_memsz
	binary.Write(out, binary.LittleEndian, uint64(0x1000))                                 // p_align

	out.Write(content.Bytes())

	// section headers: null entry first
	binary.Write(out, binary.LittleEndian, elf64Shdr{})
	linkFor := map[string]uint32{".dynsym": 2} // .dynsym -> .dynstr is section index 2
	for i, s := range sections {
		sh := elf64Shdr{
			Name:   nameOff(s.name),
			Offset: offsets[i],
			Size:   uint64(len(s.data)),
		}
		switch s.name {
		case ".dynsym":
			sh.Type = 11 // SHT_DYNSYM
			sh.Link = linkFor[".dynsym"]
			sh.Info = 1
			sh.Entsize = 24
		case ".dynstr":
			sh.Type = 3 // SHT_STRTAB
		case ".rela.plt":
			sh.Type = 4 // SHT_RELA
			sh.Link = 1 // dynsym section index
			sh.Entsize = 24
		case ".dynamic":
			sh.Type = 6 // SHT_DYNAMIC
			sh.Link = 2
			sh.Entsize = 16
		case ".shstrtab":
			sh.Type = 3 // SHT_STRTAB
		}
		binary.Write(out, binary.LittleEndian, sh)
	}

	return out.Bytes()
}

type elf64Sym struct {
	Name  uint32
	Info  uint8
	Other uint8
	Shndx uint16
	Value uint64
	Size  uint64
}

type elf64Shdr struct {
	Name      uint32
	Type      uint32
	Flags     uint64
	Addr      uint64
	Offset    uint64
	Size      uint64
	Link      uint32
	Info      uint32
	AddrAlign uint64
	Entsize   uint64
}

func TestParseELF(t *testing.T) {
	data := buildTestELF(t)
	bin, err := Parse(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Parse() failed: %s", err)
	}
	if bin.Machine() != models.MachineX86_64 {
		t.Fatalf("Machine() = %s, want x86_64", bin.Machine())
	}
	if bin.ImageBase() != 0x400000 {
		t.Fatalf("ImageBase() = 0x%x, want 0x400000", bin.ImageBase())
	}
	if !bin.HasSymbol("malloc") {
		t.Fatal("HasSymbol(malloc) = false, want true")
	}
	relocs := bin.PltgotRelocations()
	if len(relocs) != 1 {
		t.Fatalf("PltgotRelocations() len = %d, want 1", len(relocs))
	}
	r := relocs[0]
	if r.Kind != models.RelJumpSlot || r.Symbol.Name != "malloc" || r.Address != 0x402028 {
		t.Fatalf("unexpected relocation: %+v", r)
	}
	gotVA, ok := bin.DynTag(models.DT_PLTGOT)
	if !ok || gotVA != 0x403000 {
		t.Fatalf("DynTag(DT_PLTGOT) = (0x%x, %v), want (0x403000, true)", gotVA, ok)
	}
}
