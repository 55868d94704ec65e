package injector

import (
	"fmt"
	"reflect"
)

// TypeDescriptor is either a plain type T or the deferred form Provider[T].
// Both forms of the same T are distinct descriptors.
type TypeDescriptor struct {
	typ      reflect.Type
	provider reflect.Type // Provider[typ]; nil for the direct form
}

// Direct returns the descriptor of t itself, even when t is a Provider type.
func Direct(t reflect.Type) TypeDescriptor {
	return TypeDescriptor{typ: t}
}

// describe returns the descriptor of a declared member type, turning
// Provider[T] into the deferred descriptor of T.
func describe(t reflect.Type) TypeDescriptor {
	if p, ok := deferredOf(t); ok {
		return TypeDescriptor{typ: p.providedType(), provider: t}
	}
	return Direct(t)
}

// Type returns the described type; for Provider[T] that is T.
func (d TypeDescriptor) Type() reflect.Type { return d.typ }

// IsDeferred reports whether d describes Provider[T].
func (d TypeDescriptor) IsDeferred() bool { return d.provider != nil }

func (d TypeDescriptor) String() string {
	if d.IsDeferred() {
		return typeName(d.provider)
	}
	return typeName(d.typ)
}

// Identity names a bindable component: a type plus an optional qualifier.
type Identity struct {
	Type      TypeDescriptor
	Qualifier Qualifier
}

// NewIdentity returns the identity of t with qualifier q (nil for none).
// A Provider[T] type yields the deferred identity of T.
func NewIdentity(t reflect.Type, q Qualifier) Identity {
	return Identity{Type: describe(t), Qualifier: q}
}

// Of returns the unqualified identity of T.
func Of[T any]() Identity {
	return NewIdentity(reflect.TypeFor[T](), nil)
}

// OfQualified returns the identity of T qualified by q.
func OfQualified[T any](q Qualifier) Identity {
	return NewIdentity(reflect.TypeFor[T](), q)
}

// ProviderOf returns the deferred identity of T.
func ProviderOf[T any]() Identity {
	return NewIdentity(reflect.TypeFor[Provider[T]](), nil)
}

// ProviderOfQualified returns the deferred identity of T qualified by q.
func ProviderOfQualified[T any](q Qualifier) Identity {
	return NewIdentity(reflect.TypeFor[Provider[T]](), q)
}

// Component strips the deferred wrapper, yielding the identity a binding is
// stored under.
func (id Identity) Component() Identity {
	return Identity{Type: Direct(id.Type.typ), Qualifier: id.Qualifier}
}

func (id Identity) String() string {
	if id.Qualifier == nil {
		return id.Type.String()
	}
	return fmt.Sprintf("%s[%s]", id.Type, id.Qualifier.Qualifier())
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
