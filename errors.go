package injector

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

var (
	ErrTypeParamIsNil     = errors.New("type parameter is nil")
	ErrInstanceParamIsNil = errors.New("instance parameter is nil")
	ErrRegistrationClosed = errors.New("registry already built; registration is closed")

	ErrIllegalComponent   = errors.New("illegal component")
	ErrDependencyNotFound = errors.New("dependency not found")
	ErrCyclicDependency   = errors.New("cyclic dependencies found")
	ErrConstruction       = errors.New("component construction failed")
)

// Error codes reported by Code on the typed errors below.
const (
	CodeIllegalComponent   = "ILLEGAL_COMPONENT"
	CodeDependencyNotFound = "DEPENDENCY_NOT_FOUND"
	CodeCyclicDependency   = "CYCLIC_DEPENDENCY"
	CodeConstruction       = "CONSTRUCTION_FAILURE"
)

// IllegalComponentError reports a structural defect in a component type or
// in the way it was bound.
type IllegalComponentError struct {
	Type   reflect.Type
	Reason string
}

func illegal(t reflect.Type, format string, args ...any) *IllegalComponentError {
	return &IllegalComponentError{Type: t, Reason: fmt.Sprintf(format, args...)}
}

func (e *IllegalComponentError) Error() string {
	return fmt.Sprintf("illegal component %s: %s", typeName(e.Type), e.Reason)
}

func (e *IllegalComponentError) Is(target error) bool { return target == ErrIllegalComponent }

func (e *IllegalComponentError) Code() string { return CodeIllegalComponent }

// DependencyNotFoundError names the bound component and the identity it
// requires that nothing in the registry provides.
type DependencyNotFoundError struct {
	Component  Identity
	Dependency Identity
}

func (e *DependencyNotFoundError) Error() string {
	return fmt.Sprintf("dependency %s required by %s not found", e.Dependency, e.Component)
}

func (e *DependencyNotFoundError) Is(target error) bool { return target == ErrDependencyNotFound }

func (e *DependencyNotFoundError) Code() string { return CodeDependencyNotFound }

// CyclicDependencyError carries the distinct types that were being visited
// when a non-deferred cycle was found. Types is sorted by name.
type CyclicDependencyError struct {
	Types []reflect.Type
}

func newCyclicDependencyError(visiting []Identity) *CyclicDependencyError {
	seen := make(map[reflect.Type]struct{}, len(visiting))
	types := make([]reflect.Type, 0, len(visiting))
	for _, id := range visiting {
		t := id.Type.Type()
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return typeName(types[i]) < typeName(types[j]) })
	return &CyclicDependencyError{Types: types}
}

func (e *CyclicDependencyError) Error() string {
	names := make([]string, len(e.Types))
	for i, t := range e.Types {
		names[i] = typeName(t)
	}
	return fmt.Sprintf("cyclic dependencies found among: %s", strings.Join(names, ", "))
}

func (e *CyclicDependencyError) Is(target error) bool { return target == ErrCyclicDependency }

func (e *CyclicDependencyError) Code() string { return CodeCyclicDependency }

// Contains reports whether t is one of the types in the cycle.
func (e *CyclicDependencyError) Contains(t reflect.Type) bool {
	for _, ct := range e.Types {
		if ct == t {
			return true
		}
	}
	return false
}

// ConstructionError wraps a failure raised while building a component: an
// error returned by its constructor, injected method or Initialize, a panic
// in any of those, or a refused reflective call.
type ConstructionError struct {
	Component Identity
	Cause     error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("constructing %s: %v", e.Component, e.Cause)
}

func (e *ConstructionError) Unwrap() error { return e.Cause }

func (e *ConstructionError) Is(target error) bool { return target == ErrConstruction }

func (e *ConstructionError) Code() string { return CodeConstruction }
