//go:build windows

package osmem

// Program-break extension and POSIX-style anonymous mapping have no
// equivalent on Windows (VirtualAlloc/VirtualFree have different
// semantics entirely). Supporting Windows is out of scope for this
// allocator; the system provider here always reports failure so callers
// degrade the same way they would under real OS resource exhaustion.
type systemProvider struct{}

func newSystemProvider() Provider {
	return &systemProvider{}
}

func (p *systemProvider) ExtendBreak(delta uintptr) (uintptr, bool) { return 0, false }
func (p *systemProvider) MapAnon(n uintptr) (uintptr, bool)         { return 0, false }
func (p *systemProvider) Unmap(base, n uintptr) error               { return nil }
