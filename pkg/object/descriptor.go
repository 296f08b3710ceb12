package object

import "context"

// Getter computes the value of an accessor property. this is the receiver the
// read was performed on, which may be an object further down the chain than
// the one holding the accessor.
type Getter func(ctx context.Context, this *Object) (any, error)

// Setter stores a value through an accessor property
type Setter func(ctx context.Context, this *Object, value any) error

// Method is a callable property value
type Method func(ctx context.Context, this *Object, args ...any) (any, error)

// Descriptor describes how a single property is accessed. A descriptor is
// either a data descriptor (Value, Writable) or an accessor descriptor (Get,
// Set). Descriptors are treated as immutable once defined: objects replace
// descriptors instead of mutating them.
type Descriptor struct {
	Value        any
	Writable     bool
	Get          Getter
	Set          Setter
	Enumerable   bool
	Configurable bool
}

// Data returns an enumerable, configurable data descriptor
func Data(value any, writable bool) *Descriptor {
	return &Descriptor{
		Value:        value,
		Writable:     writable,
		Enumerable:   true,
		Configurable: true,
	}
}

// Accessor returns a configurable accessor descriptor. Either function may be nil.
func Accessor(get Getter, set Setter) *Descriptor {
	return &Descriptor{
		Get:          get,
		Set:          set,
		Configurable: true,
	}
}

// IsAccessor reports whether the descriptor has a getter or a setter
func (d *Descriptor) IsAccessor() bool {
	return d.Get != nil || d.Set != nil
}

// Method returns the callable stored in a data descriptor
func (d *Descriptor) Method() (Method, bool) {
	if d.IsAccessor() {
		return nil, false
	}
	return AsMethod(d.Value)
}

// IsCallable reports whether the descriptor holds a callable data value
func (d *Descriptor) IsCallable() bool {
	_, ok := d.Method()
	return ok
}

// AsMethod converts a property value into a Method if it is callable.
// Plain function literals with the Method signature are accepted as well.
func AsMethod(v any) (Method, bool) {
	switch fn := v.(type) {
	case Method:
		return fn, fn != nil
	case func(context.Context, *Object, ...any) (any, error):
		return Method(fn), fn != nil
	default:
		return nil, false
	}
}
