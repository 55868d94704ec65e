package injector

import "go.uber.org/zap"

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used by the registry and the containers it
// builds. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithTypes shares a descriptor table between registries. By default each
// registry owns a fresh one, reachable through Types.
func WithTypes(types *Types) Option {
	return func(r *Registry) {
		if types != nil {
			r.types = types
		}
	}
}

// WithLiteralProvider sets the literal provider consulted at Build time,
// taking precedence over the global hook installed by SetLiteralProvider.
func WithLiteralProvider(p LiteralProvider) Option {
	return func(r *Registry) {
		r.literals = p
	}
}
