package injector

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrProviderUnbound is returned by a zero Provider that was never injected.
var ErrProviderUnbound = errors.New("provider is not bound to a container")

// Provider is a deferred handle to a component of type T. Declaring a
// dependency as Provider[T] instead of T postpones resolving T until Get is
// called, which is what makes a dependency cycle through it legal.
type Provider[T any] struct {
	resolve func() (any, error)
}

// deferred is implemented only by Provider instantiations.
type deferred interface {
	providedType() reflect.Type
	withResolver(resolve func() (any, error)) any
}

var deferredType = reflect.TypeFor[deferred]()

func deferredOf(t reflect.Type) (deferred, bool) {
	if t == nil || t.Kind() != reflect.Struct || !t.Implements(deferredType) {
		return nil, false
	}
	d, ok := reflect.Zero(t).Interface().(deferred)
	return d, ok
}

func (Provider[T]) providedType() reflect.Type { return reflect.TypeFor[T]() }

func (Provider[T]) withResolver(resolve func() (any, error)) any {
	return Provider[T]{resolve: resolve}
}

// Get resolves the component now. Every call performs a fresh lookup, so a
// non-singleton binding yields a new instance each time.
func (p Provider[T]) Get() (T, error) {
	var zero T
	if p.resolve == nil {
		return zero, ErrProviderUnbound
	}
	v, err := p.resolve()
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("provider of %s: resolved value has type %T", typeName(reflect.TypeFor[T]()), v)
	}
	return typed, nil
}

// MustGet resolves the component or panics.
func (p Provider[T]) MustGet() T {
	v, err := p.Get()
	if err != nil {
		panic(err)
	}
	return v
}
