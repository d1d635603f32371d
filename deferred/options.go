package deferred

import "go.uber.org/zap"

// An Option configures a Callable.
type Option func(*Callable)

// WithBackend sets the backend used to compile the sources. The default is a
// LangBackend.
func WithBackend(b Backend) Option {
	return func(c *Callable) { c.backend = b }
}

// WithLogger sets the logger that receives the compilation events. The
// default discards them.
func WithLogger(l *zap.Logger) Option {
	return func(c *Callable) { c.logger = l }
}

// WithLimits sets the maximum number of steps and call depth of each call
// when the default backend is used.
func WithLimits(maxSteps, maxCallDepth int) Option {
	return func(c *Callable) {
		c.maxSteps = maxSteps
		c.maxCallDepth = maxCallDepth
	}
}
