package proxy

import (
	"context"
	"sync"
	"testing"

	"github.com/conduit-lang/clsproxy/pkg/cls"
	"github.com/conduit-lang/clsproxy/pkg/object"
	"github.com/stretchr/testify/require"
)

var (
	getterKey = object.SymbolKey(object.NewSymbol("getter"))
	setterKey = object.SymbolKey(object.NewSymbol("setter"))
	methodKey = object.SymbolKey(object.NewSymbol("method"))
	propKey   = object.StringKey("_prop")

	getterVal = object.NewSymbol("getterVal")
	methodVal = object.NewSymbol("methodVal")
)

// fixture builds a test class whose bodies record whether a frame of the
// expected namespace was active when they ran
type fixture struct {
	reg  *cls.Registry
	name any

	mu       sync.Mutex
	observed map[string][]*cls.Frame
}

func newFixture(name any) *fixture {
	lookup := name
	if lookup == nil {
		lookup = DefaultNamespace
	}
	return &fixture{
		reg:      cls.NewRegistry(nil),
		name:     lookup,
		observed: make(map[string][]*cls.Frame),
	}
}

func (f *fixture) record(body string, ctx context.Context) {
	var frame *cls.Frame
	if ns, ok := f.reg.Get(f.name); ok {
		frame, _ = ns.Active(ctx)
	}
	f.mu.Lock()
	f.observed[body] = append(f.observed[body], frame)
	f.mu.Unlock()
}

// frames returns the frames observed by body, nil entries meaning no frame was active
func (f *fixture) frames(body string) []*cls.Frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*cls.Frame(nil), f.observed[body]...)
}

func (f *fixture) config(namespace any, cache bool) Config {
	cfg := DefaultConfig()
	cfg.Namespace = namespace
	cfg.DisableCache = !cache
	cfg.Provider = RegistryProvider(f.reg)
	return cfg
}

func (f *fixture) class() *object.Class {
	return object.NewClass("Test").
		Constructor(func(ctx context.Context, this *object.Object, args ...any) error {
			f.record("constructor", ctx)
			return nil
		}).
		Getter(getterKey, func(ctx context.Context, this *object.Object) (any, error) {
			f.record("getter", ctx)
			return getterVal, nil
		}).
		Setter(setterKey, func(ctx context.Context, this *object.Object, value any) error {
			f.record("setter", ctx)
			_, err := this.Set(ctx, propKey, value)
			return err
		}).
		Getter(setterKey, func(ctx context.Context, this *object.Object) (any, error) {
			return this.Get(ctx, propKey)
		}).
		Method(methodKey, func(ctx context.Context, this *object.Object, args ...any) (any, error) {
			f.record("method", ctx)
			return methodVal, nil
		}).
		MustBuild()
}

func requireAllActive(t *testing.T, frames []*cls.Frame) {
	t.Helper()
	require.NotEmpty(t, frames)
	for _, frame := range frames {
		require.NotNil(t, frame, "body ran without an active frame")
	}
}
