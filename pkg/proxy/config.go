package proxy

import (
	"context"
	"errors"
	"fmt"

	"github.com/conduit-lang/clsproxy/pkg/cls"
	"go.uber.org/zap"
)

// DefaultNamespace is the namespace used when Config.Namespace is nil
const DefaultNamespace = "cls-class-proxy"

var (
	// ErrInvalidConfig is returned at wrap time for malformed configuration
	ErrInvalidConfig = errors.New("invalid proxy configuration")
	// ErrNilClass is returned when wrapping a nil class
	ErrNilClass = errors.New("cannot wrap a nil class")
	// ErrNotCallable is returned by Instance.Call for members that are not functions
	ErrNotCallable = errors.New("member is not callable")
	// ErrUnexpectedResult is returned when a Namespace hands back a value the
	// wrapped body did not produce
	ErrUnexpectedResult = errors.New("unexpected result from namespace")
)

// ConstructPolicy selects when the constructor's frame is captured
type ConstructPolicy int

const (
	// RunAtCallTime runs each constructor call inside a fresh child of the
	// frame active when New is called
	RunAtCallTime ConstructPolicy = iota
	// BindAtWrapTime binds the constructor to the frame active in
	// Config.BindContext when the class is wrapped; every New shares it
	BindAtWrapTime
)

// String returns the policy name as used in configuration files
func (p ConstructPolicy) String() string {
	switch p {
	case RunAtCallTime:
		return "run"
	case BindAtWrapTime:
		return "bind"
	default:
		return fmt.Sprintf("ConstructPolicy(%d)", int(p))
	}
}

// ParseConstructPolicy parses "run" or "bind"
func ParseConstructPolicy(s string) (ConstructPolicy, error) {
	switch s {
	case "", "run":
		return RunAtCallTime, nil
	case "bind":
		return BindAtWrapTime, nil
	default:
		return 0, fmt.Errorf("%w: unknown construct policy %q", ErrInvalidConfig, s)
	}
}

// Namespace is the part of a context namespace the interception layer uses.
// *cls.Namespace implements it.
type Namespace interface {
	Name() any
	RunAndReturn(ctx context.Context, fn func(ctx context.Context) (any, error)) (any, error)
	Bind(ctx context.Context, fn cls.Func) cls.Func
}

// Provider returns the namespace registered under name, creating it if needed
type Provider func(name any) (Namespace, error)

// RegistryProvider adapts a cls.Registry into a Provider
func RegistryProvider(reg *cls.Registry) Provider {
	return func(name any) (Namespace, error) {
		ns, err := reg.GetOrCreate(name)
		if err != nil {
			return nil, err
		}
		return ns, nil
	}
}

// Config holds wrapping options
type Config struct {
	// Namespace names the context domain: a non-empty string or a
	// *object.Symbol. Nil selects DefaultNamespace.
	Namespace any
	// DisableCache turns off per-class memoization of descriptor resolution.
	// Caching is on in the zero Config. Disable it for classes whose instances
	// add or remove members after construction.
	DisableCache bool
	// ConstructPolicy selects run-at-call-time or bind-at-wrap-time constructors
	ConstructPolicy ConstructPolicy
	// BindContext is the context whose frame BindAtWrapTime captures.
	// Nil means context.Background(), which binds to a new root frame.
	BindContext context.Context
	// Provider resolves namespace names. Nil uses cls.Default.
	Provider Provider
	// Logger receives debug output. Nil disables logging.
	Logger *zap.Logger
}

// DefaultConfig returns the default configuration: default namespace, caching
// enabled, constructors run at call time
func DefaultConfig() Config {
	return Config{
		Namespace:       DefaultNamespace,
		ConstructPolicy: RunAtCallTime,
	}
}

// Validate checks the configuration without side effects
func (c Config) Validate() error {
	if c.Namespace != nil {
		if err := cls.ValidateName(c.Namespace); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	switch c.ConstructPolicy {
	case RunAtCallTime, BindAtWrapTime:
	default:
		return fmt.Errorf("%w: unknown construct policy %d", ErrInvalidConfig, int(c.ConstructPolicy))
	}
	return nil
}

// namespaceName returns the configured name or the default
func (c Config) namespaceName() any {
	if c.Namespace == nil {
		return DefaultNamespace
	}
	return c.Namespace
}
