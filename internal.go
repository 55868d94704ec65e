package injector

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// validator checks a frozen binding set. Literal values it sources are added
// to bindings so the container sees them, and remembered in sourced: they
// satisfy direct dependencies only.
type validator struct {
	bindings map[Identity]*binding
	order    []Identity
	literals LiteralProvider
	sourced  map[Identity]bool
	logger   *zap.Logger
}

// checkDependencies reports every missing dependency across all bindings,
// then, when the set is complete, the first non-deferred cycle.
func (v *validator) checkDependencies() error {
	var errs error
	for _, id := range v.order {
		for _, dep := range v.bindings[id].dependencies() {
			errs = multierr.Append(errs, v.checkBound(id, dep))
		}
	}
	if errs != nil {
		return errs
	}

	// Nodes fully explored without finding a cycle.
	visited := make(map[Identity]bool, len(v.bindings))
	for _, id := range v.order {
		if err := v.checkCycles(id, []Identity{id}, visited); err != nil {
			return err
		}
	}
	return nil
}

// checkBound verifies that dep, required by component, is satisfiable. A
// deferred dependency is satisfiable when its component is bound by the
// registry itself, never by a literal.
func (v *validator) checkBound(component, dep Identity) error {
	target := dep.Component()
	if dep.Type.IsDeferred() {
		if _, ok := v.bindings[target]; ok && !v.sourced[target] {
			return nil
		}
		return &DependencyNotFoundError{Component: component, Dependency: target}
	}
	if _, ok := v.bindings[target]; ok {
		return nil
	}
	if v.literals != nil {
		found, err := v.bindLiteral(target)
		if err != nil || found {
			return err
		}
	}
	return &DependencyNotFoundError{Component: component, Dependency: target}
}

// bindLiteral asks the literal provider for target and binds the value.
func (v *validator) bindLiteral(target Identity) (bool, error) {
	val, found, err := v.literals(target)
	if err != nil {
		return false, fmt.Errorf("literal provider error for %s: %w", target, err)
	}
	if !found {
		return false, nil
	}
	if val == nil || !reflect.TypeOf(val).AssignableTo(target.Type.Type()) {
		return false, illegal(target.Type.Type(), "literal %v (%T) provided for %s is not assignable", val, val, target)
	}
	v.bindings[target] = &binding{instance: val}
	if v.sourced == nil {
		v.sourced = make(map[Identity]bool)
	}
	v.sourced[target] = true
	v.logger.Debug("literal bound", zap.Stringer("component", target))
	return true, nil
}

// checkCycles walks the non-deferred dependencies of id depth first.
// visiting is the current path, starting with the root; deferred
// dependencies end a branch without being pushed.
func (v *validator) checkCycles(id Identity, visiting []Identity, visited map[Identity]bool) error {
	if visited[id] {
		return nil
	}
	for _, dep := range v.bindings[id].dependencies() {
		if dep.Type.IsDeferred() {
			continue
		}
		if slices.Contains(visiting, dep) {
			v.logger.Debug("dependency cycle", zap.String("path", cyclePath(visiting, dep)))
			return newCyclicDependencyError(visiting)
		}
		if err := v.checkCycles(dep, append(visiting, dep), visited); err != nil {
			return err
		}
	}
	visited[id] = true
	return nil
}

// cyclePath renders the cycle closed by dep, starting at its first visit.
func cyclePath(visiting []Identity, dep Identity) string {
	start := slices.Index(visiting, dep)
	names := make([]string, 0, len(visiting)-start+1)
	for _, id := range visiting[start:] {
		names = append(names, id.String())
	}
	return strings.Join(append(names, dep.String()), pathSep)
}
