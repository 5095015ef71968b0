//go:build darwin || freebsd || netbsd || openbsd

package osmem

import (
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// brk(2) does not exist on these platforms, so the program break is
// emulated: reserve a large PROT_NONE region once, then grow the logical
// break by committing (mprotect to PROT_READ|PROT_WRITE) however much of
// it the caller just asked for. The reservation is large enough that no
// real workload exhausts it; nothing is ever unreserved, matching the
// spec's "program break is never shrunk" rule for the real brk path too.
const reservedBreakRegion = 4 << 30 // 4 GiB of address space, uncommitted.

type systemProvider struct {
	mu        sync.Mutex
	reserveAt uintptr
	committed uintptr
	reserved  bool
	lastErr   error
}

func newSystemProvider() Provider {
	return &systemProvider{}
}

func (p *systemProvider) ensureReserved() bool {
	if p.reserved {
		return true
	}

	b, err := unix.Mmap(-1, 0, reservedBreakRegion, unix.PROT_NONE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		p.lastErr = err
		return false
	}

	p.reserveAt = uintptr(unsafe.Pointer(&b[0]))
	p.reserved = true

	return true
}

func (p *systemProvider) ExtendBreak(delta uintptr) (uintptr, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.ensureReserved() {
		return 0, false
	}

	if p.committed+delta > reservedBreakRegion {
		p.lastErr = unix.ENOMEM
		return 0, false
	}

	base := p.reserveAt + p.committed
	if err := unix.Mprotect(unsafe.Slice((*byte)(unsafe.Pointer(base)), int(delta)), unix.PROT_READ|unix.PROT_WRITE); err != nil {
		p.lastErr = err
		return 0, false
	}

	p.committed += delta

	return base, true
}

func (p *systemProvider) MapAnon(n uintptr) (uintptr, bool) {
	b, err := unix.Mmap(-1, 0, int(n), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		p.mu.Lock()
		p.lastErr = err
		p.mu.Unlock()

		return 0, false
	}

	return uintptr(unsafe.Pointer(&b[0])), true
}

func (p *systemProvider) Unmap(base, n uintptr) error {
	b := unsafe.Slice((*byte)(unsafe.Pointer(base)), int(n))
	if err := unix.Munmap(b); err != nil {
		p.mu.Lock()
		p.lastErr = err
		p.mu.Unlock()

		return err
	}

	return nil
}

func (p *systemProvider) LastError() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.lastErr
}
