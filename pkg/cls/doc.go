// Package cls provides named context namespaces: continuation-local storage
// carried on context.Context.
//
// A Namespace tracks which Frame is active for a given context. Run enters a
// fresh child frame for the duration of a callback; Bind captures the frame
// active at bind time so a function invoked later, from any goroutine and with
// any context, runs under that frame again. Each namespace stores its frame
// under its own context key, so frames never leak across namespaces.
//
//	ns, _ := cls.GetOrCreateNamespace("request")
//	_ = ns.Run(ctx, func(ctx context.Context) error {
//		_ = ns.Set(ctx, "user", "alice")
//		go worker(ns.Bind(ctx, handle)) // handle sees user=alice
//		return nil
//	})
package cls
