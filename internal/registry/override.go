package registry

// Override rewrites a matching registration before it compiles: a
// predicate plus a function allowed to rewrite a matching registration at
// emit time. Overrides run in declaration order, composed left-to-right.
type Override struct {
	Predicate func(*Registration) bool
	Rewrite   func(ServiceFactory, *Registration) *Registration
}

// Initializer runs a side-effecting action after construction: a
// predicate plus a post-construction action applied to the resolved
// instance.
type Initializer struct {
	Predicate func(*Registration) bool
	Action    func(ServiceFactory, any) error
}
