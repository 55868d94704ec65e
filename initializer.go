package injector

import "fmt"

// Initializer is an optional interface that a component may implement to
// perform additional initialization after all of its dependencies have been
// injected.
//
// Initialize is called once per constructed instance, after constructor,
// field and method injection. Instances bound directly with BindInstance are
// never initialized by the registry. If Initialize returns an error, the
// lookup that triggered construction fails with a ConstructionError.
type Initializer interface {
	Initialize() error
}

func initialize(initr Initializer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return initr.Initialize()
}
