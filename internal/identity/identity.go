// Package identity defines the type tokens the rest of the container uses to
// address a service: the service identity (its reflect.Type), the
// case-insensitive service name, and the (identity, name) dependency key
// everything else is keyed by.
package identity

import (
	"reflect"
	"strings"
)

// Name is a case-insensitive service name. The empty Name denotes the
// default, unnamed registration for a given identity.
type Name string

// Fold returns the canonical (lower-cased) form of the name used for
// map keys and equality.
func (n Name) Fold() string {
	return strings.ToLower(string(n))
}

// Equal reports whether two names denote the same registration slot.
func (n Name) Equal(other Name) bool {
	return n.Fold() == other.Fold()
}

// IsDefault reports whether this is the empty/default name.
func (n Name) IsDefault() bool {
	return string(n) == ""
}

// Key uniquely addresses one ServiceRegistration: an identity plus a
// case-folded name, plus (for a closed instantiation of an open-generic
// family) the type-argument signature that distinguishes it from sibling
// instantiations sharing the same family identity and name. Key is
// comparable and safe to use as a map key.
type Key struct {
	Type reflect.Type
	name string // already case-folded

	// argsSig is empty for an ordinary registration. For a closed-generic
	// registration it holds the concatenated type-argument signature, so
	// e.g. Repository[int] and Repository[string] — both filed under the
	// same family identity — never collide on the same key.
	argsSig string
}

// NewKey builds a dependency key from a type and a (possibly mixed-case) name.
func NewKey(t reflect.Type, name Name) Key {
	return Key{Type: t, name: name.Fold()}
}

// NewGenericKey builds the dependency key for one closed instantiation of an
// open-generic family: familyKey identifies the family (the reflect.Type a
// RegisterGeneric call was filed under) and typeArgs are the concrete type
// arguments this instantiation was closed over. Distinct typeArgs always
// produce distinct keys even when familyKey and name are identical.
func NewGenericKey(familyKey reflect.Type, name Name, typeArgs []reflect.Type) Key {
	return Key{Type: familyKey, name: name.Fold(), argsSig: argsSignature(typeArgs)}
}

func argsSignature(typeArgs []reflect.Type) string {
	if len(typeArgs) == 0 {
		return ""
	}
	var b strings.Builder
	for i, t := range typeArgs {
		if i > 0 {
			b.WriteByte(',')
		}
		if t == nil {
			b.WriteString("<nil>")
			continue
		}
		b.WriteString(t.String())
	}
	return b.String()
}

// Name returns the case-folded name stored in the key.
func (k Key) Name() Name {
	return Name(k.name)
}

// String renders the key for diagnostics and error messages.
func (k Key) String() string {
	if k.Type == nil {
		return "<nil>"
	}
	s := k.Type.String()
	if k.name != "" {
		s += "[" + k.name + "]"
	}
	if k.argsSig != "" {
		s += "<" + k.argsSig + ">"
	}
	return s
}
