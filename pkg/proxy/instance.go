package proxy

import (
	"context"
	"fmt"

	"github.com/conduit-lang/clsproxy/pkg/cls"
	"github.com/conduit-lang/clsproxy/pkg/object"
)

// Instance intercepts member access on one constructed object
type Instance struct {
	target  *object.Object
	wrapped *WrappedClass
}

// Target returns the underlying object
func (i *Instance) Target() *object.Object {
	return i.target
}

// Class returns the wrapped class that produced the instance
func (i *Instance) Class() *WrappedClass {
	return i.wrapped
}

// InstanceOf reports whether the underlying object is an instance of class
func (i *Instance) InstanceOf(class *object.Class) bool {
	return object.InstanceOf(i.target, class)
}

// Descriptor returns the descriptor that governs key, as the read and write
// paths see it
func (i *Instance) Descriptor(key object.Key) (*object.Descriptor, bool, error) {
	return i.wrapped.lookup(i.target, key)
}

// Get reads key. Getters run inside a fresh namespace frame. Methods are
// returned as a cls.Func bound to the frame active in ctx (or a new frame),
// with the underlying object as this. Everything else is a plain read;
// unknown keys yield nil.
func (i *Instance) Get(ctx context.Context, key object.Key) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	d, ok, err := i.wrapped.lookup(i.target, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return i.target.Get(ctx, key)
	}

	if d.Get != nil {
		return i.wrapped.ns.RunAndReturn(ctx, func(ctx context.Context) (any, error) {
			return i.target.Get(ctx, key)
		})
	}

	if method, ok := d.Method(); ok {
		target := i.target
		return i.wrapped.ns.Bind(ctx, func(ctx context.Context, args ...any) (any, error) {
			return method(ctx, target, args...)
		}), nil
	}

	return i.target.Get(ctx, key)
}

// Set writes key. Setters run inside a fresh namespace frame; every other
// write is a plain write to the underlying object. The boolean reports
// whether the write was accepted.
func (i *Instance) Set(ctx context.Context, key object.Key, value any) (bool, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	d, ok, err := i.wrapped.lookup(i.target, key)
	if err != nil {
		return false, err
	}
	if !ok || d.Set == nil {
		return i.target.Set(ctx, key, value)
	}

	v, err := i.wrapped.ns.RunAndReturn(ctx, func(ctx context.Context) (any, error) {
		return i.target.Set(ctx, key, value)
	})
	if err != nil {
		return false, err
	}
	accepted, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: setter for %s produced %T", ErrUnexpectedResult, key, v)
	}
	return accepted, nil
}

// Call reads key and invokes the result with args
func (i *Instance) Call(ctx context.Context, key object.Key, args ...any) (any, error) {
	v, err := i.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	switch fn := v.(type) {
	case cls.Func:
		return fn(ctx, args...)
	default:
		// A getter may hand back an unbound method
		if method, ok := object.AsMethod(v); ok {
			return method(ctx, i.target, args...)
		}
		return nil, fmt.Errorf("%w: %s", ErrNotCallable, key)
	}
}
