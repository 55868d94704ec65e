package injector

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type Component interface {
	Dependency() Dependency
}

type Dependency interface {
	Name() string
}

type AnotherDependency interface {
	Another() string
}

type dependency struct{ name string }

func (d *dependency) Name() string { return d.name }

type anotherDependency struct{}

func (*anotherDependency) Another() string { return "another" }

// Skywalker is a custom marker qualifier.
type Skywalker struct{}

func (Skywalker) Qualifier() string { return "skywalker" }

// sliceQualifier cannot be compared and is rejected wherever it appears.
type sliceQualifier []string

func (sliceQualifier) Qualifier() string { return "slice" }

var errBoom = errors.New("boom")

// Injection through each kind of injection point.

type ConstructorInjection struct{ dep Dependency }

func NewConstructorInjection(dep Dependency) *ConstructorInjection {
	return &ConstructorInjection{dep: dep}
}

func (c *ConstructorInjection) Dependency() Dependency { return c.dep }

type FieldInjection struct {
	Dep Dependency `inject:""`
}

func (f *FieldInjection) Dependency() Dependency { return f.Dep }

type MethodInjection struct{ dep Dependency }

func (m *MethodInjection) Install(dep Dependency) { m.dep = dep }

func (m *MethodInjection) Dependency() Dependency { return m.dep }

// Components that form cycles with the Dependency side below.

type CyclicComponentInjectConstructor struct{ dep Dependency }

func NewCyclicComponentInjectConstructor(dep Dependency) *CyclicComponentInjectConstructor {
	return &CyclicComponentInjectConstructor{dep: dep}
}

func (c *CyclicComponentInjectConstructor) Dependency() Dependency { return c.dep }

type CyclicComponentInjectField struct {
	Dep Dependency `inject:""`
}

func (c *CyclicComponentInjectField) Dependency() Dependency { return c.Dep }

type CyclicComponentInjectMethod struct{ dep Dependency }

func (c *CyclicComponentInjectMethod) Install(dep Dependency) { c.dep = dep }

func (c *CyclicComponentInjectMethod) Dependency() Dependency { return c.dep }

type CyclicDependencyInjectConstructor struct{}

func NewCyclicDependencyInjectConstructor(Component) *CyclicDependencyInjectConstructor {
	return &CyclicDependencyInjectConstructor{}
}

func (*CyclicDependencyInjectConstructor) Name() string { return "constructor" }

type CyclicDependencyInjectField struct {
	Component Component `inject:""`
}

func (*CyclicDependencyInjectField) Name() string { return "field" }

type CyclicDependencyInjectMethod struct{}

func (*CyclicDependencyInjectMethod) Install(Component) {}

func (*CyclicDependencyInjectMethod) Name() string { return "method" }

// Dependency -> AnotherDependency -> Component, for three-node cycles.

type IndirectCyclicDependencyInjectConstructor struct{}

func NewIndirectCyclicDependencyInjectConstructor(AnotherDependency) *IndirectCyclicDependencyInjectConstructor {
	return &IndirectCyclicDependencyInjectConstructor{}
}

func (*IndirectCyclicDependencyInjectConstructor) Name() string { return "constructor" }

type IndirectCyclicDependencyInjectField struct {
	Another AnotherDependency `inject:""`
}

func (*IndirectCyclicDependencyInjectField) Name() string { return "field" }

type IndirectCyclicDependencyInjectMethod struct{}

func (*IndirectCyclicDependencyInjectMethod) Install(AnotherDependency) {}

func (*IndirectCyclicDependencyInjectMethod) Name() string { return "method" }

type IndirectCyclicAnotherDependencyInjectConstructor struct{}

func NewIndirectCyclicAnotherDependencyInjectConstructor(Component) *IndirectCyclicAnotherDependencyInjectConstructor {
	return &IndirectCyclicAnotherDependencyInjectConstructor{}
}

func (*IndirectCyclicAnotherDependencyInjectConstructor) Another() string { return "constructor" }

type IndirectCyclicAnotherDependencyInjectField struct {
	Component Component `inject:""`
}

func (*IndirectCyclicAnotherDependencyInjectField) Another() string { return "field" }

type IndirectCyclicAnotherDependencyInjectMethod struct{}

func (*IndirectCyclicAnotherDependencyInjectMethod) Install(Component) {}

func (*IndirectCyclicAnotherDependencyInjectMethod) Another() string { return "method" }

// A Dependency that breaks the cycle by asking for a Provider.

type CyclicDependencyProviderConstructor struct {
	component Provider[Component]
}

func NewCyclicDependencyProviderConstructor(component Provider[Component]) *CyclicDependencyProviderConstructor {
	return &CyclicDependencyProviderConstructor{component: component}
}

func (*CyclicDependencyProviderConstructor) Name() string { return "provider" }

// Qualified dependencies.

type QualifiedInjectConstructor struct{ dep Dependency }

func NewQualifiedInjectConstructor(dep Dependency) *QualifiedInjectConstructor {
	return &QualifiedInjectConstructor{dep: dep}
}

type SkywalkerDependency struct{}

func NewSkywalkerDependency(Dependency) *SkywalkerDependency { return &SkywalkerDependency{} }

func (*SkywalkerDependency) Name() string { return "skywalker" }

type NotCyclicDependency struct{}

func NewNotCyclicDependency(Dependency) *NotCyclicDependency { return &NotCyclicDependency{} }

func (*NotCyclicDependency) Name() string { return "not cyclic" }

// Components with a missing Dependency, one per injection point kind.

type MissingDependencyConstructor struct{}

func NewMissingDependencyConstructor(Dependency) *MissingDependencyConstructor {
	return &MissingDependencyConstructor{}
}

func (*MissingDependencyConstructor) Dependency() Dependency { return nil }

type MissingDependencyField struct {
	Dep Dependency `inject:""`
}

func (*MissingDependencyField) Dependency() Dependency { return nil }

type MissingDependencyMethod struct{}

func (*MissingDependencyMethod) Install(Dependency) {}

func (*MissingDependencyMethod) Dependency() Dependency { return nil }

type MissingDependencyProviderConstructor struct{}

func NewMissingDependencyProviderConstructor(Provider[Dependency]) *MissingDependencyProviderConstructor {
	return &MissingDependencyProviderConstructor{}
}

func (*MissingDependencyProviderConstructor) Dependency() Dependency { return nil }

type MissingDependencyProviderField struct {
	Dep Provider[Dependency] `inject:""`
}

func (*MissingDependencyProviderField) Dependency() Dependency { return nil }

type MissingDependencyProviderMethod struct{}

func (*MissingDependencyProviderMethod) Install(Provider[Dependency]) {}

func (*MissingDependencyProviderMethod) Dependency() Dependency { return nil }

// describeFixtures registers the descriptions every fixture above needs.
func describeFixtures(t testing.TB, types *Types) {
	t.Helper()
	require.NoError(t, Describe[ConstructorInjection](types, InjectConstructor(NewConstructorInjection)))
	require.NoError(t, Describe[MethodInjection](types, InjectMethod("Install")))

	require.NoError(t, Describe[CyclicComponentInjectConstructor](types, InjectConstructor(NewCyclicComponentInjectConstructor)))
	require.NoError(t, Describe[CyclicComponentInjectMethod](types, InjectMethod("Install")))
	require.NoError(t, Describe[CyclicDependencyInjectConstructor](types, InjectConstructor(NewCyclicDependencyInjectConstructor)))
	require.NoError(t, Describe[CyclicDependencyInjectMethod](types, InjectMethod("Install")))

	require.NoError(t, Describe[IndirectCyclicDependencyInjectConstructor](types, InjectConstructor(NewIndirectCyclicDependencyInjectConstructor)))
	require.NoError(t, Describe[IndirectCyclicDependencyInjectMethod](types, InjectMethod("Install")))
	require.NoError(t, Describe[IndirectCyclicAnotherDependencyInjectConstructor](types, InjectConstructor(NewIndirectCyclicAnotherDependencyInjectConstructor)))
	require.NoError(t, Describe[IndirectCyclicAnotherDependencyInjectMethod](types, InjectMethod("Install")))

	require.NoError(t, Describe[CyclicDependencyProviderConstructor](types, InjectConstructor(NewCyclicDependencyProviderConstructor)))

	require.NoError(t, Describe[QualifiedInjectConstructor](types, InjectConstructor(NewQualifiedInjectConstructor, Param(0, Skywalker{}))))
	require.NoError(t, Describe[SkywalkerDependency](types, InjectConstructor(NewSkywalkerDependency, Param(0, Named("ChosenOne")))))
	require.NoError(t, Describe[NotCyclicDependency](types, InjectConstructor(NewNotCyclicDependency, Param(0, Skywalker{}))))

	require.NoError(t, Describe[MissingDependencyConstructor](types, InjectConstructor(NewMissingDependencyConstructor)))
	require.NoError(t, Describe[MissingDependencyMethod](types, InjectMethod("Install")))
	require.NoError(t, Describe[MissingDependencyProviderConstructor](types, InjectConstructor(NewMissingDependencyProviderConstructor)))
	require.NoError(t, Describe[MissingDependencyProviderMethod](types, InjectMethod("Install")))
}

// stubResolver resolves identities from a fixed table.
type stubResolver map[Identity]any

func (s stubResolver) Get(id Identity) (any, bool, error) {
	v, ok := s[id]
	return v, ok, nil
}
