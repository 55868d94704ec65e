package injector

import (
	"sync/atomic"
)

// LiteralProvider is a hook invoked at Build time when a bound component
// requires an identity that nothing is bound to.
// - id: the missing identity; id.Type.Type() is the type the value must be assignable to
// Returns:
// - value: the literal value to bind under id
// - found: whether a value is available
// - err: any error occurred while sourcing the value (e.g., parsing, I/O)
//
// Deferred dependencies (Provider[T]) never consult the hook: they require a
// real binding of T.
type LiteralProvider func(id Identity) (value any, found bool, err error)

// literalProvider holds the global hook. It is guarded with atomic.Value to allow
// lock-free, race-free reads during Build while supporting concurrent updates.
var literalProvider atomic.Value // stores LiteralProvider

func init() {
	// Initialize with typed nil to fix the stored type for atomic.Value.
	literalProvider.Store(LiteralProvider(nil))
}

// SetLiteralProvider installs a global literal provider hook, used by every
// Registry that was not given one with WithLiteralProvider.
func SetLiteralProvider(p LiteralProvider) {
	literalProvider.Store(p)
}

// loadLiteralProvider returns the currently installed literal provider (may be nil).
func loadLiteralProvider() LiteralProvider {
	if provider, ok := literalProvider.Load().(LiteralProvider); ok {
		return provider
	}
	return nil
}

// ChainLiterals asks each provider in turn and returns the first value found.
func ChainLiterals(providers ...LiteralProvider) LiteralProvider {
	return func(id Identity) (any, bool, error) {
		for _, p := range providers {
			if p == nil {
				continue
			}
			v, found, err := p(id)
			if err != nil || found {
				return v, found, err
			}
		}
		return nil, false, nil
	}
}
