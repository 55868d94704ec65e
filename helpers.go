package injector

import (
	"fmt"
	"reflect"
)

var errorType = reflect.TypeFor[error]()

// createInstance allocates a zero *T for the struct type T. It is the
// constructor of types that describe none.
func createInstance(beanType reflect.Type) (reflect.Value, error) {
	if beanType.Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("beanType is not supported: %v", beanType.Kind())
	}
	return reflect.New(beanType), nil
}

// call invokes fn, turning a panic in user code into an error.
func call(fn reflect.Value, args []reflect.Value) (out []reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn.Call(args), nil
}

// returnedError extracts a trailing error result.
func returnedError(out []reflect.Value) error {
	if len(out) == 0 {
		return nil
	}
	last := out[len(out)-1]
	if last.Type() != errorType || last.IsNil() {
		return nil
	}
	return last.Interface().(error)
}

// setField assigns value to an exported struct field, recovering from the
// panics reflect raises on refused access.
func setField(field reflect.Value, value reflect.Value) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	if !field.CanSet() {
		return fmt.Errorf("field of type %s cannot be set", field.Type())
	}
	field.Set(value)
	return nil
}

// assignable converts a resolved value to a reflect.Value of typ.
func assignable(v any, typ reflect.Type) (reflect.Value, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return reflect.Zero(typ), nil
	}
	if !rv.Type().AssignableTo(typ) {
		return reflect.Value{}, fmt.Errorf("value of type %s is not assignable to %s", rv.Type(), typ)
	}
	return rv, nil
}

// implementationOf reports whether values produced for impl (always *impl)
// can be stored under beanType.
func implementationOf(beanType, impl reflect.Type) bool {
	return reflect.PointerTo(impl).AssignableTo(beanType)
}
