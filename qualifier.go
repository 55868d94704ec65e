package injector

import "reflect"

// Qualifier narrows an Identity beyond its type. Qualifiers compare by value:
// two qualifiers are the same when they have the same dynamic type and are
// equal, so any comparable type implementing Qualifier can be used.
//
//	type Skywalker struct{}
//
//	func (Skywalker) Qualifier() string { return "skywalker" }
type Qualifier interface {
	Qualifier() string
}

// Named is the built-in string qualifier.
type Named string

func (n Named) Qualifier() string { return "named:" + string(n) }

func checkQualifier(owner reflect.Type, q Qualifier) error {
	if q == nil {
		return illegal(owner, "nil qualifier")
	}
	if !reflect.TypeOf(q).Comparable() {
		return illegal(owner, "qualifier %T is not comparable", q)
	}
	return nil
}

// singleQualifier enforces that an injection point carries at most one qualifier.
func singleQualifier(owner reflect.Type, point string, qs []Qualifier) (Qualifier, error) {
	switch len(qs) {
	case 0:
		return nil, nil
	case 1:
		if err := checkQualifier(owner, qs[0]); err != nil {
			return nil, err
		}
		return qs[0], nil
	default:
		return nil, illegal(owner, "%s declares %d qualifiers, at most one is allowed", point, len(qs))
	}
}
