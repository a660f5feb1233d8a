package sim

import (
	"encoding/binary"
	"testing"

	"github.com/lunixbochs/qbdl/go/models"
)

func TestMmapHonorsHintUnlessOverlap(t *testing.T) {
	m := NewMemory(0x1000_0000)
	a := m.Mmap(0x5000_0000, 0x1000)
	if a != 0x5000_0000 {
		t.Fatalf("Mmap ignored a free hint: got 0x%x", a)
	}
	b := m.Mmap(0x5000_0000, 0x1000) // collides with a
	if b == 0x5000_0000 {
		t.Fatal("Mmap honored a hint that overlaps an existing region")
	}
}

func TestMmapZeroHintPicksNext(t *testing.T) {
	m := NewMemory(0x1000_0000)
	a := m.Mmap(0, 0x1000)
	b := m.Mmap(0, 0x1000)
	if a != 0x1000_0000 || b != 0x1000_1000 {
		t.Fatalf("got a=0x%x b=0x%x, want sequential regions", a, b)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	m := NewMemory(0x1000_0000)
	addr := m.Mmap(0, 0x1000)
	m.Write(addr+8, []byte{1, 2, 3, 4})
	buf := make([]byte, 4)
	m.Read(buf, addr+8)
	if buf[0] != 1 || buf[3] != 4 {
		t.Fatalf("round trip mismatch: %v", buf)
	}
}

func TestWriteUnmappedPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Write to an unmapped address did not panic")
		}
	}()
	NewMemory(0x1000).Write(0xdead, []byte{1})
}

func TestPtrRoundTrip64And32(t *testing.T) {
	m := NewMemory(0x1000_0000)
	addr := m.Mmap(0, 0x1000)

	arch64 := models.ArchForMachine(models.MachineX86_64)
	m.WritePtr(arch64, addr, 0x1122334455667788)
	if got := m.ReadPtr(arch64, addr); got != 0x1122334455667788 {
		t.Fatalf("64-bit round trip = 0x%x", got)
	}

	arch32 := models.Arch{Bits: 32, ByteOrder: binary.LittleEndian}
	m.WritePtr(arch32, addr+16, 0x11223344)
	if got := m.ReadPtr(arch32, addr+16); got != 0x11223344 {
		t.Fatalf("32-bit round trip = 0x%x", got)
	}
}
