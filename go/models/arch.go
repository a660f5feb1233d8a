package models

import "encoding/binary"

// Arch is the small value the Memory abstraction needs to read and write
// pointer-sized words correctly: how wide a word is and which way its
// bytes go. It is derived from the binary, never constructed by hand by
// loader code.
type Arch struct {
	Bits      int
	ByteOrder binary.ByteOrder
}

// ArchForMachine derives the Arch descriptor for the two machines this
// loader understands. Both are little-endian LP64; the distinction exists
// so a future architecture doesn't have to guess.
func ArchForMachine(m Machine) Arch {
	switch m {
	case MachineX86_64, MachineAArch64:
		return Arch{Bits: 64, ByteOrder: binary.LittleEndian}
	default:
		return Arch{Bits: 64, ByteOrder: binary.LittleEndian}
	}
}

func (a Arch) PointerSize() uint64 {
	return uint64(a.Bits / 8)
}
