package proxy

import (
	"context"
	"fmt"

	"github.com/conduit-lang/clsproxy/internal/logging"
	"github.com/conduit-lang/clsproxy/pkg/cls"
	"github.com/conduit-lang/clsproxy/pkg/descriptor"
	"github.com/conduit-lang/clsproxy/pkg/object"
	"go.uber.org/zap"
)

// Wrapper wraps classes with a fixed configuration
type Wrapper func(class *object.Class) (*WrappedClass, error)

// WrappedClass constructs instances of a class whose member accesses run
// under a context namespace. Each WrappedClass owns its own descriptor cache,
// even when the same class is wrapped more than once.
type WrappedClass struct {
	class     *object.Class
	ns        Namespace
	cache     *descriptor.Cache
	lookup    descriptor.Lookup
	construct cls.Func
	cfg       Config
	logger    *zap.Logger
}

// Proxify validates cfg and returns a Wrapper applying it. Configuration
// errors surface here rather than at first use.
func Proxify(cfg Config) (Wrapper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return func(class *object.Class) (*WrappedClass, error) {
		return WrapWithConfig(class, cfg)
	}, nil
}

// Wrap wraps class with the default configuration
func Wrap(class *object.Class) (*WrappedClass, error) {
	return WrapWithConfig(class, DefaultConfig())
}

// WrapWithConfig wraps class with a custom configuration. Errors from the
// namespace provider are returned unchanged.
func WrapWithConfig(class *object.Class, cfg Config) (*WrappedClass, error) {
	if class == nil {
		return nil, ErrNilClass
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	provider := cfg.Provider
	if provider == nil {
		provider = RegistryProvider(cls.Default)
	}
	ns, err := provider(cfg.namespaceName())
	if err != nil {
		return nil, err
	}

	w := &WrappedClass{
		class:  class,
		ns:     ns,
		cfg:    cfg,
		lookup: descriptor.Resolve,
		logger: logging.OrNop(cfg.Logger),
	}
	if !cfg.DisableCache {
		w.cache = descriptor.NewCache()
		w.lookup = descriptor.Cached(w.cache, descriptor.Resolve)
	}

	switch cfg.ConstructPolicy {
	case BindAtWrapTime:
		bindCtx := cfg.BindContext
		if bindCtx == nil {
			bindCtx = context.Background()
		}
		w.construct = ns.Bind(bindCtx, w.constructInstance)
	default:
		w.construct = func(ctx context.Context, args ...any) (any, error) {
			return ns.RunAndReturn(ctx, func(ctx context.Context) (any, error) {
				return w.constructInstance(ctx, args...)
			})
		}
	}

	w.logger.Debug("class wrapped",
		zap.String("class", class.Name()),
		zap.Any("namespace", ns.Name()),
		zap.Bool("cache", !cfg.DisableCache),
		zap.Stringer("construct_policy", cfg.ConstructPolicy),
	)
	return w, nil
}

// constructInstance runs the unwrapped constructor and wraps the result
func (w *WrappedClass) constructInstance(ctx context.Context, args ...any) (any, error) {
	obj, err := w.class.Construct(ctx, args...)
	if err != nil {
		return nil, err
	}
	return &Instance{target: obj, wrapped: w}, nil
}

// New constructs an instance. The constructor body runs under an active frame
// chosen by the construct policy; its errors are returned unchanged.
func (w *WrappedClass) New(ctx context.Context, args ...any) (*Instance, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	v, err := w.construct(ctx, args...)
	if err != nil {
		return nil, err
	}
	inst, ok := v.(*Instance)
	if !ok {
		return nil, fmt.Errorf("%w: constructor for %s produced %T", ErrUnexpectedResult, w.class.Name(), v)
	}
	return inst, nil
}

// Class returns the unwrapped class
func (w *WrappedClass) Class() *object.Class {
	return w.class
}

// Namespace returns the namespace the class is bound to
func (w *WrappedClass) Namespace() Namespace {
	return w.ns
}

// Cache returns the descriptor cache, nil when caching is disabled
func (w *WrappedClass) Cache() *descriptor.Cache {
	return w.cache
}

// Config returns the configuration the class was wrapped with
func (w *WrappedClass) Config() Config {
	return w.cfg
}
