package dmheap

import "github.com/Masterminds/semver/v3"

// Version identifies this package's public API.
var Version = semver.MustParse("1.0.0")

// CompatibleWith reports whether Version satisfies constraint, using the
// same constraint syntax a host integration shim would check a dependency
// against before binding to this allocator's symbols.
func CompatibleWith(constraint string) (bool, error) {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, err
	}

	return c.Check(Version), nil
}
