// Package dispatcher executes toolbar commands by key.
//
// The dispatcher is the single entry point for toolbar interactions. It looks
// a key up in the current registry, runs the command's Execute with panic
// recovery, and reports the outcome as a Result instead of propagating
// failures to the presentation layer.
//
// # Dispatch
//
// When a key is dispatched:
//
//  1. Re-entrant dispatch is refused (an Execute may not dispatch)
//  2. Pre-dispatch hooks run and may cancel the request
//  3. The key is resolved against the registry
//  4. Execute runs, optionally under panic recovery
//  5. Post-dispatch hooks observe the result
//  6. Metrics are recorded (if enabled)
//
// An unknown key yields a StatusError result wrapping *UnknownCommandError;
// the document is not touched.
//
// # Hooks
//
// Hooks implement PreDispatchHook or PostDispatchHook, or use the
// PreDispatchFunc and PostDispatchFunc adapters:
//
//	d.RegisterPreHook(dispatcher.PreDispatchFunc(func(r *dispatcher.Request) bool {
//	    return r.Key != "codeBlock"
//	}))
//
// # Thread Safety
//
// Dispatch may be called from any goroutine, but only one dispatch runs at
// a time; a concurrent or nested call returns ErrReentrantDispatch.
package dispatcher
