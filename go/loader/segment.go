package loader

import (
	"github.com/pkg/errors"

	"github.com/lunixbochs/qbdl/go/models"
)

const pageSize = 0x1000

func pageAlign(size uint64) uint64 {
	return (size + pageSize - 1) &^ (pageSize - 1)
}

// mapSegments reserves the image region and copies every PT_LOAD
// segment's content into it, in the binary's declared order. Overlap
// between segments is not checked, matching spec.md §4.3 — the loader
// trusts the binary the same way the rest of the pipeline does.
func (l *Loader) mapSegments() error {
	bin := l.binary
	virtualSize := pageAlign(bin.VirtualSize())

	hint := l.engine.BaseAddressHint(bin.ImageBase(), virtualSize)
	base := l.engine.Mem().Mmap(hint, virtualSize)
	if base == 0 {
		l.log.Errorf("mmap() failed, aborting load")
		return errors.New("loader: mmap failed")
	}
	l.baseAddress = base

	for _, seg := range bin.Segments() {
		if seg.Type != models.SegLoad {
			continue
		}
		if len(seg.Content) == 0 {
			continue
		}
		dst := base + l.rva(seg.Vaddr)
		l.engine.Mem().Write(dst, seg.Content)
	}
	return nil
}
