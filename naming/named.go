// Package naming builds and validates hierarchical names such as
// "FatTree.Aggregator[1].Edge[2]".
package naming

// Named is anything with a hierarchical name.
type Named interface {
	Name() string
}

// NamedBase stores a name. Embed it to implement Named.
type NamedBase struct {
	name string
}

// Name returns the stored name.
func (b NamedBase) Name() string {
	return b.name
}

// MakeNamedBase panics if name is invalid and returns a NamedBase holding it
// otherwise.
func MakeNamedBase(name string) NamedBase {
	NameMustBeValid(name)

	return NamedBase{name: name}
}
