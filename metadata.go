package injector

import (
	"fmt"
	"reflect"
	"strings"
)

// Resolver supplies dependency values during instantiation. Container
// implements it.
type Resolver interface {
	Get(id Identity) (any, bool, error)
}

// level is one step of a struct's embedding ancestry.
type level struct {
	typ   reflect.Type
	index []int // path from the most derived struct; nil for the struct itself
	link  int   // field index of the embedded parent, -1 at the base
}

// signature identifies a method for override detection.
type signature struct {
	name   string
	params []reflect.Type
}

func (s signature) overrides(o signature) bool {
	if s.name != o.name || len(s.params) != len(o.params) {
		return false
	}
	for i := range s.params {
		if s.params[i] != o.params[i] {
			return false
		}
	}
	return true
}

func overriddenBy(s signature, others []signature) bool {
	for _, o := range others {
		if o.overrides(s) {
			return true
		}
	}
	return false
}

type injectable struct {
	point    string
	required []Identity
	types    []reflect.Type
}

func (i injectable) arguments(r Resolver) ([]reflect.Value, error) {
	args := make([]reflect.Value, len(i.required))
	for n, id := range i.required {
		v, ok, err := r.Get(id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("dependency %s is not bound", id)
		}
		if args[n], err = assignable(v, i.types[n]); err != nil {
			return nil, fmt.Errorf("dependency %s: %w", id, err)
		}
	}
	return args, nil
}

type constructorPoint struct {
	injectable
	fn reflect.Value // invalid when the zero value is used
}

type fieldPoint struct {
	injectable
	index []int
}

type methodPoint struct {
	injectable
	sig   signature
	level []int
	fn    reflect.Value
}

// Metadata is everything needed to build one struct type: the chosen
// constructor, the injected fields (base level first) and the injected
// methods (base level first, each at most once).
type Metadata struct {
	typ         reflect.Type
	constructor constructorPoint
	fields      []fieldPoint
	methods     []methodPoint
}

// Type returns the struct type the metadata describes.
func (m *Metadata) Type() reflect.Type { return m.typ }

// Dependencies lists every required identity: constructor parameters, then
// fields, then method parameters.
func (m *Metadata) Dependencies() []Identity {
	deps := append([]Identity(nil), m.constructor.required...)
	for _, f := range m.fields {
		deps = append(deps, f.required...)
	}
	for _, mp := range m.methods {
		deps = append(deps, mp.required...)
	}
	return deps
}

// Instantiate builds a new *T: it calls the constructor with resolved
// arguments, sets the injected fields, calls the injected methods and finally
// Initialize when T implements Initializer.
func (m *Metadata) Instantiate(r Resolver) (any, error) {
	instance, err := m.construct(r)
	if err != nil {
		return nil, err
	}

	for _, f := range m.fields {
		args, err := f.arguments(r)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.point, err)
		}
		if err = setField(instance.Elem().FieldByIndex(f.index), args[0]); err != nil {
			return nil, fmt.Errorf("%s: %w", f.point, err)
		}
	}

	for _, mp := range m.methods {
		args, err := mp.arguments(r)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", mp.point, err)
		}
		receiver := instance
		if len(mp.level) > 0 {
			receiver = instance.Elem().FieldByIndex(mp.level).Addr()
		}
		out, err := call(mp.fn, append([]reflect.Value{receiver}, args...))
		if err == nil {
			err = returnedError(out)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", mp.point, err)
		}
	}

	bean := instance.Interface()
	if initr, ok := bean.(Initializer); ok {
		if err = initialize(initr); err != nil {
			return nil, fmt.Errorf("initialize: %w", err)
		}
	}
	return bean, nil
}

func (m *Metadata) construct(r Resolver) (reflect.Value, error) {
	if !m.constructor.fn.IsValid() {
		return createInstance(m.typ)
	}
	args, err := m.constructor.arguments(r)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("constructor: %w", err)
	}
	out, err := call(m.constructor.fn, args)
	if err == nil {
		err = returnedError(out)
	}
	if err != nil {
		return reflect.Value{}, fmt.Errorf("constructor: %w", err)
	}
	if out[0].IsNil() {
		return reflect.Value{}, fmt.Errorf("constructor returned a nil %s", out[0].Type())
	}
	return out[0], nil
}

// Extract returns the metadata of beanType (a struct or pointer to struct),
// computing it once per type.
func (t *Types) Extract(beanType reflect.Type) (*Metadata, error) {
	if beanType == nil {
		return nil, ErrTypeParamIsNil
	}
	beanType = structOf(beanType)

	t.mu.RLock()
	m, ok := t.metadata[beanType]
	t.mu.RUnlock()
	if ok {
		return m, nil
	}

	m, err := t.extract(beanType)
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	t.metadata[beanType] = m
	t.mu.Unlock()
	return m, nil
}

func (t *Types) extract(beanType reflect.Type) (*Metadata, error) {
	switch beanType.Kind() {
	case reflect.Interface:
		return nil, illegal(beanType, "interfaces cannot be instantiated")
	case reflect.Struct:
	default:
		return nil, illegal(beanType, "only struct types can be instantiated, got %s", beanType.Kind())
	}
	if _, ok := deferredOf(beanType); ok {
		return nil, illegal(beanType, "providers cannot be bound as implementations")
	}
	if c := t.class(beanType); c != nil && c.abstract {
		return nil, illegal(beanType, "abstract types cannot be instantiated")
	}

	levels := ancestry(beanType)
	m := &Metadata{typ: beanType}
	var err error
	if m.constructor, err = t.injectConstructor(beanType); err != nil {
		return nil, err
	}
	if m.fields, err = t.injectFields(levels); err != nil {
		return nil, err
	}
	if m.methods, err = t.injectMethods(levels); err != nil {
		return nil, err
	}
	return m, nil
}

// ancestry walks the embedding chain, most derived level first. The parent
// of a level is its first exported, embedded, untagged struct field.
func ancestry(beanType reflect.Type) []level {
	var levels []level
	current, index := beanType, []int(nil)
	for {
		link := parentField(current)
		levels = append(levels, level{typ: current, index: index, link: link})
		if link < 0 {
			return levels
		}
		index = append(append([]int(nil), index...), link)
		current = current.Field(link).Type
	}
}

func parentField(t reflect.Type) int {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous || !f.IsExported() || f.Type.Kind() != reflect.Struct {
			continue
		}
		if _, tagged := f.Tag.Lookup(string(inject)); tagged {
			continue
		}
		if _, ok := deferredOf(f.Type); ok {
			continue
		}
		return i
	}
	return -1
}

func (t *Types) injectConstructor(beanType reflect.Type) (constructorPoint, error) {
	c := t.class(beanType)
	if c == nil || len(c.constructors) == 0 {
		return constructorPoint{injectable: injectable{point: "constructor"}}, nil
	}

	var marked []constructorSpec
	for _, spec := range c.constructors {
		if spec.inject {
			marked = append(marked, spec)
		}
	}
	switch {
	case len(marked) > 1:
		return constructorPoint{}, illegal(beanType, "%d constructors are marked for injection, at most one is allowed", len(marked))
	case len(marked) == 1:
		return constructor(beanType, marked[0])
	}

	for _, spec := range c.constructors {
		fn := reflect.ValueOf(spec.fn)
		if fn.Kind() == reflect.Func && fn.Type().NumIn() == 0 {
			return constructor(beanType, spec)
		}
	}
	return constructorPoint{}, illegal(beanType, "no constructor is marked for injection and none takes zero arguments")
}

func constructor(beanType reflect.Type, spec constructorSpec) (constructorPoint, error) {
	fn := reflect.ValueOf(spec.fn)
	if fn.Kind() != reflect.Func || fn.IsNil() {
		return constructorPoint{}, illegal(beanType, "constructor must be a non-nil function, got %T", spec.fn)
	}
	ft := fn.Type()
	if ft.IsVariadic() {
		return constructorPoint{}, illegal(beanType, "constructor %s is variadic", ft)
	}
	want := reflect.PointerTo(beanType)
	switch {
	case ft.NumOut() == 1 && ft.Out(0) == want:
	case ft.NumOut() == 2 && ft.Out(0) == want && ft.Out(1) == errorType:
	default:
		return constructorPoint{}, illegal(beanType, "constructor %s must return %s or (%s, error)", ft, want, want)
	}

	point, err := parameters(beanType, "constructor", ft, 0, spec.params)
	if err != nil {
		return constructorPoint{}, err
	}
	return constructorPoint{injectable: point, fn: fn}, nil
}

// parameters turns the inputs of ft, from offset on, into identities.
func parameters(owner reflect.Type, point string, ft reflect.Type, offset int, params []ParamOption) (injectable, error) {
	count := ft.NumIn() - offset
	qualifiers := make([][]Qualifier, count)
	for _, p := range params {
		if p.index < 0 || p.index >= count {
			return injectable{}, illegal(owner, "%s has no parameter %d", point, p.index)
		}
		qualifiers[p.index] = append(qualifiers[p.index], p.qualifiers...)
	}

	in := injectable{point: point}
	for i := 0; i < count; i++ {
		q, err := singleQualifier(owner, fmt.Sprintf("%s parameter %d", point, i), qualifiers[i])
		if err != nil {
			return injectable{}, err
		}
		pt := ft.In(offset + i)
		in.required = append(in.required, NewIdentity(pt, q))
		in.types = append(in.types, pt)
	}
	return in, nil
}

// injectFields collects tagged fields level by level, base level first.
func (t *Types) injectFields(levels []level) ([]fieldPoint, error) {
	owner := levels[0].typ
	var fields []fieldPoint
	for i := len(levels) - 1; i >= 0; i-- {
		lv := levels[i]
		for j := 0; j < lv.typ.NumField(); j++ {
			if j == lv.link {
				continue
			}
			f := lv.typ.Field(j)
			if _, ok := f.Tag.Lookup(string(inject)); !ok {
				continue
			}
			point := fmt.Sprintf("field %s.%s", lv.typ.Name(), f.Name)
			if !f.IsExported() {
				return nil, illegal(owner, "%s is immutable: unexported fields cannot be injected", point)
			}
			q, err := t.fieldQualifier(owner, point, f)
			if err != nil {
				return nil, err
			}
			fields = append(fields, fieldPoint{
				injectable: injectable{
					point:    point,
					required: []Identity{NewIdentity(f.Type, q)},
					types:    []reflect.Type{f.Type},
				},
				index: append(append([]int(nil), lv.index...), j),
			})
		}
	}
	return fields, nil
}

func (t *Types) fieldQualifier(owner reflect.Type, point string, f reflect.StructField) (Qualifier, error) {
	var qs []Qualifier
	if v, ok := f.Tag.Lookup(string(named)); ok {
		qs = append(qs, Named(v))
	}
	if v, ok := f.Tag.Lookup(string(qualifier)); ok {
		for _, name := range strings.Split(v, listSep) {
			name = strings.TrimSpace(name)
			if name == emptyString {
				continue
			}
			q, found := t.namedQualifier(name)
			if !found {
				return nil, illegal(owner, "%s: unknown qualifier %q", point, name)
			}
			qs = append(qs, q)
		}
	}
	return singleQualifier(owner, point, qs)
}

// injectMethods walks from the most derived level to the base. A marked
// method is kept unless a marked method already collected from a more derived
// level overrides it, or an unmarked method of the most derived type does.
// Levels are then reversed so base methods run first.
func (t *Types) injectMethods(levels []level) ([]methodPoint, error) {
	owner := levels[0].typ
	overriders, err := t.unmarkedMethods(levels[0])
	if err != nil {
		return nil, err
	}

	collected := make([][]methodPoint, len(levels))
	var seen []signature
	for i, lv := range levels {
		c := t.class(lv.typ)
		if c == nil {
			continue
		}
		if err = checkMethodDeclarations(owner, c); err != nil {
			return nil, err
		}
		var found []methodPoint
		for _, spec := range c.methods {
			if !spec.inject {
				continue
			}
			mp, err := method(owner, lv, spec)
			if err != nil {
				return nil, err
			}
			if overriddenBy(mp.sig, seen) || overriddenBy(mp.sig, overriders) {
				continue
			}
			found = append(found, mp)
		}
		for _, mp := range found {
			seen = append(seen, mp.sig)
		}
		collected[i] = found
	}

	var methods []methodPoint
	for i := len(collected) - 1; i >= 0; i-- {
		methods = append(methods, collected[i]...)
	}
	return methods, nil
}

func (t *Types) unmarkedMethods(root level) ([]signature, error) {
	c := t.class(root.typ)
	if c == nil {
		return nil, nil
	}
	var sigs []signature
	for _, spec := range c.methods {
		if spec.inject {
			continue
		}
		m, ok := reflect.PointerTo(root.typ).MethodByName(spec.name)
		if !ok {
			return nil, illegal(root.typ, "method %s is not an exported method of %s", spec.name, reflect.PointerTo(root.typ))
		}
		sigs = append(sigs, signatureOf(m))
	}
	return sigs, nil
}

func checkMethodDeclarations(owner reflect.Type, c *class) error {
	declared := make(map[string]struct{}, len(c.methods))
	for _, spec := range c.methods {
		if _, dup := declared[spec.name]; dup {
			return illegal(owner, "method %s of %s is declared more than once", spec.name, c.typ)
		}
		declared[spec.name] = struct{}{}
	}
	return nil
}

func method(owner reflect.Type, lv level, spec methodSpec) (methodPoint, error) {
	pt := reflect.PointerTo(lv.typ)
	m, ok := pt.MethodByName(spec.name)
	if !ok {
		return methodPoint{}, illegal(owner, "method %s is not an exported method of %s", spec.name, pt)
	}
	mt := m.Type
	if mt.IsVariadic() {
		return methodPoint{}, illegal(owner, "injected method %s is variadic and has no fixed parameters to resolve", spec.name)
	}
	if mt.NumOut() > 1 || (mt.NumOut() == 1 && mt.Out(0) != errorType) {
		return methodPoint{}, illegal(owner, "injected method %s must return nothing or an error", spec.name)
	}

	point, err := parameters(owner, "method "+spec.name, mt, 1, spec.params)
	if err != nil {
		return methodPoint{}, err
	}
	return methodPoint{
		injectable: point,
		sig:        signatureOf(m),
		level:      lv.index,
		fn:         m.Func,
	}, nil
}

func signatureOf(m reflect.Method) signature {
	sig := signature{name: m.Name}
	for i := 1; i < m.Type.NumIn(); i++ {
		sig.params = append(sig.params, m.Type.In(i))
	}
	return sig
}
