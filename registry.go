package injector

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// binding is the construction strategy stored under one or more identities:
// a fixed instance, or metadata to construct from.
type binding struct {
	instance  any
	metadata  *Metadata
	singleton bool

	// mu guards instance and built for singletons while they are constructed.
	mu    sync.Mutex
	built bool
}

func (b *binding) dependencies() []Identity {
	if b.metadata == nil {
		return nil
	}
	return b.metadata.Dependencies()
}

func (b *binding) provide(c *Container, id Identity, from *resolution) (any, error) {
	if b.metadata == nil {
		return b.instance, nil
	}
	// A lookup that re-enters a construction still running on the same
	// chain can never complete; for singletons it would also block on mu.
	if path, ok := from.reentry(b, id); ok {
		return nil, &ConstructionError{Component: id, Cause: fmt.Errorf("%w: %s", ErrCyclicDependency, path)}
	}
	if !b.singleton {
		return b.construct(c, id, from)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.built {
		return b.instance, nil
	}
	v, err := b.construct(c, id, from)
	if err != nil {
		return nil, err
	}
	b.instance, b.built = v, true
	return v, nil
}

func (b *binding) construct(c *Container, id Identity, from *resolution) (any, error) {
	c.logger.Debug("constructing component",
		zap.Stringer("component", id),
		zap.Stringer("implementation", b.metadata.Type()),
	)
	frame := &resolution{c: c, parent: from, id: id, b: b}
	frame.active.Store(true)
	defer frame.active.Store(false)

	v, err := b.metadata.Instantiate(frame)
	if err != nil {
		return nil, &ConstructionError{Component: id, Cause: err}
	}
	return v, nil
}

// resolution is one frame of a chain of nested constructions. Dependencies,
// including the Providers handed to a component, resolve through the frame
// of the component being constructed.
type resolution struct {
	c      *Container
	parent *resolution
	id     Identity
	b      *binding
	active atomic.Bool
}

func (r *resolution) Get(id Identity) (any, bool, error) {
	return r.c.get(id, r)
}

// reentry reports the path back to b when b is still being constructed
// somewhere up the chain.
func (r *resolution) reentry(b *binding, id Identity) (string, bool) {
	names := []string{id.String()}
	for f := r; f != nil; f = f.parent {
		names = append(names, f.id.String())
		if f.b == b && f.active.Load() {
			slices.Reverse(names)
			return strings.Join(names, pathSep), true
		}
	}
	return emptyString, false
}

// Registry collects bindings until Build freezes them into a Container.
type Registry struct {
	buildLock sync.Mutex
	// Protects access to bindings and order during registration/build.
	regMu sync.RWMutex
	// Indicates whether the registry has been built/finalized.
	built     atomic.Bool
	container *Container

	types    *Types
	logger   *zap.Logger
	literals LiteralProvider

	// bindings is the source of truth for all registered components.
	bindings map[Identity]*binding
	// order keeps first-registration order so validation is deterministic.
	order []Identity
}

// New returns an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		types:    NewTypes(),
		logger:   zap.NewNop(),
		bindings: make(map[Identity]*binding),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Types returns the descriptor table implementations are extracted from.
// Describe a type there before binding it. Descriptions changed after binding
// are picked up by Build; a Container already built keeps the ones it was
// built with.
func (r *Registry) Types() *Types {
	return r.types
}

// BindInstance binds instance under beanType, once per qualifier, or
// unqualified when none is given. Rebinding an identity replaces it.
func (r *Registry) BindInstance(beanType reflect.Type, instance any, qualifiers ...Qualifier) error {
	if beanType == nil {
		return ErrTypeParamIsNil
	}
	if instance == nil {
		return ErrInstanceParamIsNil
	}
	if r.built.Load() {
		return ErrRegistrationClosed
	}
	if _, ok := deferredOf(beanType); ok {
		return illegal(beanType, "providers are derived from their component and cannot be bound")
	}
	if !reflect.TypeOf(instance).AssignableTo(beanType) {
		return illegal(beanType, "instance of type %T is not assignable to %s", instance, beanType)
	}

	ids, err := identities(beanType, qualifiers)
	if err != nil {
		return err
	}
	return r.put(ids, &binding{instance: instance})
}

// BindType binds the struct type impl under beanType. A new *impl is
// constructed on every lookup.
func (r *Registry) BindType(beanType, impl reflect.Type, qualifiers ...Qualifier) error {
	return r.bindType(beanType, impl, false, qualifiers)
}

// BindSingleton binds impl under beanType like BindType, but constructs it
// at most once; every qualifier given shares that one instance.
func (r *Registry) BindSingleton(beanType, impl reflect.Type, qualifiers ...Qualifier) error {
	return r.bindType(beanType, impl, true, qualifiers)
}

func (r *Registry) bindType(beanType, impl reflect.Type, singleton bool, qualifiers []Qualifier) error {
	if beanType == nil || impl == nil {
		return ErrTypeParamIsNil
	}
	if r.built.Load() {
		return ErrRegistrationClosed
	}
	if _, ok := deferredOf(beanType); ok {
		return illegal(beanType, "providers are derived from their component and cannot be bound")
	}

	m, err := r.types.Extract(impl)
	if err != nil {
		return err
	}
	if !implementationOf(beanType, m.Type()) {
		return illegal(impl, "%s is not assignable to %s", reflect.PointerTo(m.Type()), beanType)
	}

	ids, err := identities(beanType, qualifiers)
	if err != nil {
		return err
	}
	return r.put(ids, &binding{metadata: m, singleton: singleton})
}

func identities(beanType reflect.Type, qualifiers []Qualifier) ([]Identity, error) {
	if len(qualifiers) == 0 {
		return []Identity{{Type: Direct(beanType)}}, nil
	}
	ids := make([]Identity, 0, len(qualifiers))
	for _, q := range qualifiers {
		if err := checkQualifier(beanType, q); err != nil {
			return nil, err
		}
		ids = append(ids, Identity{Type: Direct(beanType), Qualifier: q})
	}
	return ids, nil
}

func (r *Registry) put(ids []Identity, b *binding) error {
	r.regMu.Lock()
	defer r.regMu.Unlock()
	if r.built.Load() {
		return ErrRegistrationClosed
	}
	for _, id := range ids {
		if _, exists := r.bindings[id]; exists {
			r.logger.Warn("rebinding component", zap.Stringer("component", id))
		} else {
			r.order = append(r.order, id)
		}
		r.bindings[id] = b
		r.logger.Debug("component bound", zap.Stringer("component", id), zap.Bool("singleton", b.singleton))
	}
	return nil
}

// Build finalizes the registry: it verifies that every dependency of every
// binding is satisfiable and that no binding takes part in a cycle that is
// not broken by a Provider, then returns the Container answering lookups.
//
// Once Build has succeeded, registration is closed and further calls return
// the same Container.
func (r *Registry) Build() (container *Container, err error) {
	r.buildLock.Lock()
	defer r.buildLock.Unlock()

	// Idempotent: if already built, nothing to do.
	if r.built.Load() {
		return r.container, nil
	}

	r.regMu.Lock()
	defer r.regMu.Unlock()

	if err = r.refreshMetadata(); err != nil {
		r.logger.Error("registry validation failed", zap.Error(err))
		return nil, err
	}
	v := &validator{
		bindings: maps.Clone(r.bindings),
		order:    slices.Clone(r.order),
		literals: r.literalProvider(),
		logger:   r.logger,
	}
	if err = v.checkDependencies(); err != nil {
		r.logger.Error("registry validation failed", zap.Error(err))
		return nil, err
	}

	container = newContainer(v.bindings, r.logger)
	r.container = container
	r.built.Store(true)
	r.logger.Info("container built",
		zap.String("container", container.ID()),
		zap.Int("bindings", len(v.bindings)),
	)
	return container, nil
}

// refreshMetadata re-extracts every type binding, so descriptions changed
// with Describe or RegisterQualifier after binding take effect.
func (r *Registry) refreshMetadata() error {
	var errs error
	seen := make(map[*binding]bool, len(r.bindings))
	for _, id := range r.order {
		b := r.bindings[id]
		if b.metadata == nil || seen[b] {
			continue
		}
		seen[b] = true
		m, err := r.types.Extract(b.metadata.Type())
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		b.metadata = m
	}
	return errs
}

func (r *Registry) literalProvider() LiteralProvider {
	if r.literals != nil {
		return r.literals
	}
	return loadLiteralProvider()
}

// Instance binds instance under T.
func Instance[T any](r *Registry, instance T, qualifiers ...Qualifier) error {
	return r.BindInstance(reflect.TypeFor[T](), instance, qualifiers...)
}

// Implementation binds the struct type Impl (or *Impl) under T.
func Implementation[T, Impl any](r *Registry, qualifiers ...Qualifier) error {
	return r.BindType(reflect.TypeFor[T](), reflect.TypeFor[Impl](), qualifiers...)
}

// Singleton binds Impl under T, constructing it at most once.
func Singleton[T, Impl any](r *Registry, qualifiers ...Qualifier) error {
	return r.BindSingleton(reflect.TypeFor[T](), reflect.TypeFor[Impl](), qualifiers...)
}
