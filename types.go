package injector

import (
	"reflect"
	"sync"
)

// Types is the descriptor table the extractor reads. Go has no annotations,
// so everything a struct tag cannot express (which constructor and which
// methods are injection points, and the qualifiers on their parameters) is
// declared here with Describe. Injected fields are read from struct tags:
//
//	type Service struct {
//	    Base                                  // parent level
//	    Repo  Repository `inject:""`
//	    Cache Cache      `inject:"" named:"hot"`
//	}
//
// A Types value is safe for concurrent use.
type Types struct {
	mu         sync.RWMutex
	classes    map[reflect.Type]*class
	qualifiers map[string]Qualifier
	metadata   map[reflect.Type]*Metadata
}

// class is the explicit description of one struct type.
type class struct {
	typ          reflect.Type
	abstract     bool
	constructors []constructorSpec
	methods      []methodSpec
}

type constructorSpec struct {
	fn     any
	inject bool
	params []ParamOption
}

type methodSpec struct {
	name   string
	inject bool
	params []ParamOption
}

// ParamOption attaches qualifiers to one parameter of a described
// constructor or method.
type ParamOption struct {
	index      int
	qualifiers []Qualifier
}

// Param qualifies the parameter at index (zero-based, receiver excluded).
func Param(index int, qualifiers ...Qualifier) ParamOption {
	return ParamOption{index: index, qualifiers: qualifiers}
}

// TypeOption describes one aspect of a struct type.
type TypeOption func(*class)

// InjectConstructor marks fn as the constructor to inject. fn must return *T,
// or (*T, error), where T is the described type.
func InjectConstructor(fn any, params ...ParamOption) TypeOption {
	return func(c *class) {
		c.constructors = append(c.constructors, constructorSpec{fn: fn, inject: true, params: params})
	}
}

// Constructor declares an unmarked constructor. Only a zero-argument one is
// ever used, as the fallback when no constructor is marked.
func Constructor(fn any) TypeOption {
	return func(c *class) {
		c.constructors = append(c.constructors, constructorSpec{fn: fn})
	}
}

// InjectMethod marks the exported method name, declared on *T, as an
// injection point.
func InjectMethod(name string, params ...ParamOption) TypeOption {
	return func(c *class) {
		c.methods = append(c.methods, methodSpec{name: name, inject: true, params: params})
	}
}

// Method declares that T redeclares name without marking it. On the most
// derived type this suppresses any inherited injection method it overrides.
// Shadowing is only seen through descriptions: a method T declares in Go but
// not here leaves the inherited injection method in place, called on the
// embedded receiver.
func Method(name string) TypeOption {
	return func(c *class) {
		c.methods = append(c.methods, methodSpec{name: name})
	}
}

// Abstract marks T as not instantiable on its own.
func Abstract() TypeOption {
	return func(c *class) {
		c.abstract = true
	}
}

// NewTypes returns an empty descriptor table.
func NewTypes() *Types {
	return &Types{
		classes:    make(map[reflect.Type]*class),
		qualifiers: make(map[string]Qualifier),
		metadata:   make(map[reflect.Type]*Metadata),
	}
}

// Describe records the description of beanType, replacing any earlier one.
// Pointer types are normalized to their struct element. Registries read the
// new description when they are next built.
func (t *Types) Describe(beanType reflect.Type, opts ...TypeOption) error {
	if beanType == nil {
		return ErrTypeParamIsNil
	}
	beanType = structOf(beanType)
	if beanType.Kind() != reflect.Struct {
		return illegal(beanType, "only struct types can be described")
	}

	c := &class{typ: beanType}
	for _, opt := range opts {
		opt(c)
	}

	t.mu.Lock()
	t.classes[beanType] = c
	// Any cached metadata may embed the old description through ancestry.
	t.metadata = make(map[reflect.Type]*Metadata)
	t.mu.Unlock()
	return nil
}

// Describe records the description of T in types.
func Describe[T any](types *Types, opts ...TypeOption) error {
	return types.Describe(reflect.TypeFor[T](), opts...)
}

// RegisterQualifier registers q under name so struct tags can refer to it with
// `qualifier:"name"`.
func (t *Types) RegisterQualifier(name string, q Qualifier) error {
	if name == emptyString {
		return illegal(nil, "qualifier name is empty")
	}
	if err := checkQualifier(nil, q); err != nil {
		return err
	}
	t.mu.Lock()
	t.qualifiers[name] = q
	t.metadata = make(map[reflect.Type]*Metadata)
	t.mu.Unlock()
	return nil
}

func (t *Types) class(beanType reflect.Type) *class {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.classes[beanType]
}

func (t *Types) namedQualifier(name string) (Qualifier, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	q, ok := t.qualifiers[name]
	return q, ok
}

// structOf strips one level of pointer indirection.
func structOf(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Ptr {
		return t.Elem()
	}
	return t
}
