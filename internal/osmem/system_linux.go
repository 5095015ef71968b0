//go:build linux

package osmem

import (
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// systemProvider extends the real process program break via the raw
// brk(2) syscall and serves mapped regions through mmap(2)/munmap(2).
type systemProvider struct {
	mu      sync.Mutex
	brk     uintptr
	hasBrk  bool
	lastErr error
}

func newSystemProvider() Provider {
	return &systemProvider{}
}

// queryBreak asks the kernel for the current break without moving it, by
// passing an address of 0 — brk(2) on Linux returns the unchanged break
// when the requested address is not past it.
func queryBreak() uintptr {
	addr, _, _ := unix.Syscall(unix.SYS_BRK, 0, 0, 0)
	return addr
}

func (p *systemProvider) ExtendBreak(delta uintptr) (uintptr, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.hasBrk {
		p.brk = queryBreak()
		p.hasBrk = true
	}

	want := p.brk + delta

	got, _, errno := unix.Syscall(unix.SYS_BRK, want, 0, 0)
	if errno != 0 || got < want {
		p.lastErr = errno
		return 0, false
	}

	prev := p.brk
	p.brk = got

	return prev, true
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

// LastError returns the most recent syscall error observed by this
// provider, for diagnostics only — never consulted by the four public
// operations themselves.
func (p *systemProvider) LastError() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.lastErr
}
