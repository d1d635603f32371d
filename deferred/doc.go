// Package deferred implements serializable deferred callables: values that
// pair the source text of a function body with the executable form compiled
// from it.
//
// The source text is the durable form, it is what gets serialized. The
// executable form is derived from it by a Backend, and is never serialized.
// The two never diverge: every operation that changes the source compiles it
// first and only commits the new source and executable together, on success.
//
//	c, err := deferred.New("|i| i ** 2")
//	if err != nil {
//		// err is a *CompileError
//	}
//	v, err := c.Call(ctx, types.Int(3)) // v == types.Int(9)
//
// A Callable is safe for concurrent use.
package deferred
