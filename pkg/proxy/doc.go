// Package proxy wraps a class so that its constructor, accessors and methods
// always execute inside an active context namespace frame.
//
// Wrapping a class returns a WrappedClass. Its New runs the class constructor
// under a namespace frame and returns an Instance, a stand-in for the
// constructed object that intercepts reads and writes:
//
//   - reading a getter runs the getter inside a fresh frame
//   - reading a method returns a cls.Func bound to the frame active at read
//     time, so detached method values keep their context
//   - writing through a setter runs the setter inside a fresh frame
//   - plain data and unknown keys pass straight through to the object
//
// Which of these applies is decided by the descriptor that governs the key,
// resolved across the prototype chain and, unless disabled, memoized per
// wrapped class.
//
//	wrapped, err := proxy.Wrap(accountClass)
//	acct, err := wrapped.New(ctx, 100)
//	balance, err := acct.Get(ctx, object.StringKey("balance"))
//	_, err = acct.Call(ctx, object.StringKey("deposit"), 50)
package proxy
