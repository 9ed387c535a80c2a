// Package scan registers a batch of already-discovered (service,
// implementing type) candidates in one call. Go has no runtime assembly
// enumeration, so the caller supplies the already-enumerated candidates —
// typically gathered by a code generator or a hand-maintained list at init
// time — instead of this package walking loaded assemblies itself.
//
// This is deliberately a thin, external collaborator: assembly scanning
// for auto-registration is explicitly out of scope of the core container.
package scan

import (
	"reflect"

	"github.com/feO2x/lightinject"
)

// Candidate is one discovered (service, implementation) pair ready to
// register.
type Candidate struct {
	ServiceType      reflect.Type
	ImplementingType reflect.Type
	Constructor      any
	Name             string
	Lifetime         lightinject.Lifetime
}

// ShouldRegister filters which discovered candidates are actually
// registered. A nil predicate registers every candidate.
type ShouldRegister func(serviceType, implementingType reflect.Type) bool

// Register registers every candidate in candidates that shouldRegister
// accepts, in slice order, stopping at the first registration error.
func Register(container *lightinject.Container, candidates []Candidate, shouldRegister ShouldRegister) error {
	for _, cand := range candidates {
		if shouldRegister != nil && !shouldRegister(cand.ServiceType, cand.ImplementingType) {
			continue
		}

		var opts []lightinject.RegisterOption
		if cand.Name != "" {
			opts = append(opts, lightinject.WithName(cand.Name))
		}
		if cand.Lifetime != nil {
			opts = append(opts, lightinject.WithLifetime(cand.Lifetime))
		}

		if err := lightinject.RegisterType(container, cand.ServiceType, cand.Constructor, opts...); err != nil {
			return err
		}
	}
	return nil
}
