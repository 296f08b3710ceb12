package object

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClass_ConstructAndInherit(t *testing.T) {
	ctx := context.Background()
	idKey := StringKey("id")
	greet := StringKey("greet")

	base := NewClass("Base").
		Constructor(func(ctx context.Context, this *Object, args ...any) error {
			_, err := this.Set(ctx, idKey, args[0])
			return err
		}).
		Method(greet, func(ctx context.Context, this *Object, args ...any) (any, error) {
			return this.Get(ctx, idKey)
		}).
		MustBuild()
	derived := NewClass("Derived").Extends(base).MustBuild()

	obj, err := derived.Construct(ctx, "abc")
	require.NoError(t, err)

	assert.True(t, InstanceOf(obj, derived))
	assert.True(t, InstanceOf(obj, base))
	assert.Same(t, derived, obj.Class())

	v, err := obj.Call(ctx, greet)
	require.NoError(t, err)
	assert.Equal(t, "abc", v)

	assert.Equal(t, []*Class{derived, base}, derived.Lineage())
}

func TestClass_Super(t *testing.T) {
	ctx := context.Background()
	var calls []string

	base := NewClass("Base").
		Constructor(func(ctx context.Context, this *Object, args ...any) error {
			calls = append(calls, "base")
			return nil
		}).
		MustBuild()

	var derived *Class
	derived = NewClass("Derived").
		Extends(base).
		Constructor(func(ctx context.Context, this *Object, args ...any) error {
			if err := derived.Super(ctx, this, args...); err != nil {
				return err
			}
			calls = append(calls, "derived")
			return nil
		}).
		MustBuild()

	_, err := derived.Construct(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"base", "derived"}, calls)
}

func TestClass_ConstructorErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	cls := NewClass("Failing").
		Constructor(func(context.Context, *Object, ...any) error { return boom }).
		MustBuild()

	obj, err := cls.Construct(context.Background())
	assert.Nil(t, obj)
	assert.Same(t, boom, err)
}

func TestClassBuilder_MergesAccessorHalves(t *testing.T) {
	key := StringKey("value")
	cls := NewClass("Box").
		Getter(key, func(context.Context, *Object) (any, error) { return 1, nil }).
		Setter(key, func(context.Context, *Object, any) error { return nil }).
		MustBuild()

	d, ok := cls.Prototype().OwnDescriptor(key)
	require.True(t, ok)
	assert.NotNil(t, d.Get)
	assert.NotNil(t, d.Set)
	assert.False(t, d.IsCallable())
}

func TestClass_ExtendsRejectsCycles(t *testing.T) {
	t.Run("Self", func(t *testing.T) {
		b := NewClass("A")
		a, err := b.Build()
		require.NoError(t, err)

		b.Extends(a)
		_, err = b.Build()
		require.ErrorIs(t, err, ErrPrototypeCycle)
		assert.Nil(t, a.Prototype().Prototype())
		assert.Nil(t, a.Parent())
	})

	t.Run("Mutual", func(t *testing.T) {
		ab := NewClass("A")
		a := ab.MustBuild()
		b := NewClass("B").Extends(a).MustBuild()

		ab.Extends(b)
		_, err := ab.Build()
		require.ErrorIs(t, err, ErrPrototypeCycle)
		assert.Contains(t, err.Error(), "class A cannot extend B")
		assert.Nil(t, a.Parent())
		assert.Equal(t, []*Class{b, a}, b.Lineage())
	})

	t.Run("MustBuildPanics", func(t *testing.T) {
		b := NewClass("A")
		a := b.MustBuild()
		assert.Panics(t, func() { b.Extends(a).MustBuild() })
	})
}

func TestClass_ExtendsNilClearsParent(t *testing.T) {
	base := NewClass("Base").MustBuild()
	derived, err := NewClass("Derived").Extends(base).Extends(nil).Build()
	require.NoError(t, err)
	assert.Nil(t, derived.Parent())
	assert.Nil(t, derived.Prototype().Prototype())
}
