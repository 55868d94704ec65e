package injector

import (
	"fmt"
	"reflect"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Container is a validated, frozen set of bindings. Every dependency of every
// binding is known to be resolvable, so lookups only fail when user code
// fails during construction.
//
// Non-singleton components are constructed anew on each lookup. A Container
// is safe for concurrent use as long as the components' own constructors,
// fields and methods are; singletons are constructed at most once.
type Container struct {
	id       string
	bindings map[Identity]*binding
	logger   *zap.Logger
}

func newContainer(bindings map[Identity]*binding, logger *zap.Logger) *Container {
	id := uuid.NewString()
	return &Container{
		id:       id,
		bindings: bindings,
		logger:   logger.With(zap.String("container", id)),
	}
}

// ID returns the unique id of this container, as used in its log fields.
func (c *Container) ID() string {
	return c.id
}

// Has reports whether Get can return a value for id.
func (c *Container) Has(id Identity) bool {
	_, ok := c.bindings[id.Component()]
	return ok
}

// Get returns the value bound under id. ok is false, with a nil error, when
// nothing is bound. A deferred identity over a bound component yields a
// Provider that resolves the component each time it is invoked.
func (c *Container) Get(id Identity) (value any, ok bool, err error) {
	return c.get(id, nil)
}

// get resolves id on behalf of the construction frame from, nil for a
// top-level lookup.
func (c *Container) get(id Identity, from *resolution) (value any, ok bool, err error) {
	if id.Type.IsDeferred() {
		target := id.Component()
		if _, bound := c.bindings[target]; !bound {
			return nil, false, nil
		}
		p, _ := deferredOf(id.Type.provider)
		return p.withResolver(func() (any, error) {
			v, _, err := c.get(target, from)
			return v, err
		}), true, nil
	}

	b, bound := c.bindings[id]
	if !bound {
		return nil, false, nil
	}
	value, err = b.provide(c, id, from)
	if err != nil {
		c.logger.Error("component construction failed", zap.Stringer("component", id), zap.Error(err))
		return nil, false, err
	}
	return value, true, nil
}

// Resolve returns the value bound under id as a T.
func Resolve[T any](c *Container, id Identity) (T, bool, error) {
	var zero T
	v, ok, err := c.Get(id)
	if err != nil || !ok {
		return zero, ok, err
	}
	typed, isT := v.(T)
	if !isT {
		return zero, false, fmt.Errorf("component %s has type %T, not %s", id, v, reflect.TypeFor[T]())
	}
	return typed, true, nil
}

// Get returns the unqualified T.
func Get[T any](c *Container) (T, bool, error) {
	return Resolve[T](c, Of[T]())
}

// GetQualified returns the T qualified by q.
func GetQualified[T any](c *Container, q Qualifier) (T, bool, error) {
	return Resolve[T](c, OfQualified[T](q))
}

// GetProvider returns a deferred handle to the unqualified T.
func GetProvider[T any](c *Container) (Provider[T], bool, error) {
	return Resolve[Provider[T]](c, ProviderOf[T]())
}

// MustGet returns the unqualified T or panics if it is unbound or fails to
// construct. Use only during startup.
func MustGet[T any](c *Container) T {
	v, ok, err := Get[T](c)
	if err != nil {
		panic(err)
	}
	if !ok {
		panic(fmt.Sprintf("component %s is not bound", Of[T]()))
	}
	return v
}
