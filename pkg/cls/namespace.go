package cls

import (
	"context"

	"go.uber.org/zap"
)

// Func is a function that can be bound to a namespace frame
type Func func(ctx context.Context, args ...any) (any, error)

// activeKey is the context key under which a namespace stores its active frame
type activeKey struct {
	ns *Namespace
}

// Namespace is a named context domain
type Namespace struct {
	name   any
	logger *zap.Logger
}

// Name returns the namespace name (a string or a *object.Symbol)
func (n *Namespace) Name() any {
	return n.name
}

// Active returns the frame active in ctx for this namespace
func (n *Namespace) Active(ctx context.Context) (*Frame, bool) {
	if ctx == nil {
		return nil, false
	}
	f, ok := ctx.Value(activeKey{ns: n}).(*Frame)
	return f, ok && f != nil
}

// With returns a copy of ctx in which frame is active
func (n *Namespace) With(ctx context.Context, frame *Frame) context.Context {
	return context.WithValue(ctx, activeKey{ns: n}, frame)
}

// Enter creates a child of the active frame (or a root frame) and returns a
// context in which it is active
func (n *Namespace) Enter(ctx context.Context) (context.Context, *Frame) {
	parent, _ := n.Active(ctx)
	frame := newFrame(parent)
	return n.With(ctx, frame), frame
}

// Run calls fn synchronously inside a freshly entered frame
func (n *Namespace) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, _ = n.Enter(ctx)
	return fn(ctx)
}

// RunAndReturn calls fn synchronously inside a freshly entered frame and
// returns its result
func (n *Namespace) RunAndReturn(ctx context.Context, fn func(ctx context.Context) (any, error)) (any, error) {
	ctx, _ = n.Enter(ctx)
	return fn(ctx)
}

// Bind captures the frame active in ctx, creating one when none is active, and
// returns a function that runs fn under that frame. The context passed to the
// bound function still controls cancellation and carries other values; only
// this namespace's frame is replaced.
func (n *Namespace) Bind(ctx context.Context, fn Func) Func {
	frame, ok := n.Active(ctx)
	if !ok {
		frame = newFrame(nil)
		n.logger.Debug("bind outside an active frame, entered root frame",
			zap.Any("namespace", n.name), zap.String("frame", frame.id))
	}
	return n.BindFrame(frame, fn)
}

// BindFrame returns a function that runs fn with frame active
func (n *Namespace) BindFrame(frame *Frame, fn Func) Func {
	return func(ctx context.Context, args ...any) (any, error) {
		if ctx == nil {
			ctx = context.Background()
		}
		return fn(n.With(ctx, frame), args...)
	}
}

// Set stores a value on the active frame
func (n *Namespace) Set(ctx context.Context, key, value any) error {
	frame, ok := n.Active(ctx)
	if !ok {
		return ErrNoActiveContext
	}
	frame.Set(key, value)
	return nil
}

// Get reads a value from the active frame and its ancestors
func (n *Namespace) Get(ctx context.Context, key any) (any, bool) {
	frame, ok := n.Active(ctx)
	if !ok {
		return nil, false
	}
	return frame.Get(key)
}
