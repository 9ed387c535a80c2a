package registry

import (
	"github.com/feO2x/lightinject/internal/identity"
	"github.com/feO2x/lightinject/internal/lifetime"
)

// Fallback synthesizes a registration on demand: a predicate over
// (identity, name) and a factory invoked when no registration matches a
// request directly.
type Fallback struct {
	Predicate func(key identity.Key) bool
	Factory   func(ServiceFactory, identity.Key) (any, error)
	Lifetime  lifetime.Strategy
}
