// Package semverinfo reports the allocator's tunable-set revision as a
// semantic version, so scaffolding that links this package in as a
// replacement for the standard allocator can assert ABI compatibility
// (alignment, META layout, thresholds) before doing so.
package semverinfo

import "github.com/Masterminds/semver/v3"

// Revision bumps whenever ALIGNMENT, the block descriptor layout, or the
// HEAP_PREALLOC/MMAP_THRESHOLD tunables change in a way that could break
// a caller relying on the previous layout.
const Revision = "1.0.0"

// Version parses Revision. It panics on failure, which would only ever
// happen if Revision itself were malformed — a programmer error caught
// immediately, not a runtime condition.
func Version() *semver.Version {
	v, err := semver.NewVersion(Revision)
	if err != nil {
		panic("semverinfo: invalid Revision constant: " + err.Error())
	}

	return v
}

// Satisfies reports whether the allocator's revision satisfies the given
// constraint (e.g. "^1.0.0").
func Satisfies(constraint string) (bool, error) {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, err
	}

	return c.Check(Version()), nil
}
