// Package object provides the explicit object model that wrapped classes are
// built on: keys and symbols, immutable property descriptors, objects linked
// into prototype chains, and classes with single inheritance.
//
// Property access on an Object follows ordinary object semantics: own
// properties shadow inherited ones, accessors run with the initial receiver
// as `this`, and reads of unknown keys yield nil without an error.
//
// Classes are assembled with a builder:
//
//	account := object.NewClass("Account").
//		Extends(entity).
//		Constructor(func(ctx context.Context, this *object.Object, args ...any) error {
//			_, err := this.Set(ctx, object.StringKey("balance"), args[0])
//			return err
//		}).
//		Method(object.StringKey("deposit"), deposit).
//		MustBuild()
//
//	obj, err := account.Construct(ctx, 100)
package object
