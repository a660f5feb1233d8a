package sim

import "github.com/lunixbochs/qbdl/go/models"

// WritePtr and ReadPtr give the loader pointer-width/endianness-correct
// access to GOT slots without it ever touching a raw byte slice itself.

func (m *Memory) WritePtr(arch models.Arch, dst uint64, value uint64) {
	buf := make([]byte, arch.PointerSize())
	switch arch.PointerSize() {
	case 8:
		arch.ByteOrder.PutUint64(buf, value)
	case 4:
		arch.ByteOrder.PutUint32(buf, uint32(value))
	default:
		panic("sim: unsupported pointer size")
	}
	m.Write(dst, buf)
}

func (m *Memory) ReadPtr(arch models.Arch, src uint64) uint64 {
	buf := make([]byte, arch.PointerSize())
	m.Read(buf, src)
	switch arch.PointerSize() {
	case 8:
		return arch.ByteOrder.Uint64(buf)
	case 4:
		return uint64(arch.ByteOrder.Uint32(buf))
	default:
		panic("sim: unsupported pointer size")
	}
}
