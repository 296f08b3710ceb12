package object

import (
	"context"
	"fmt"
)

// Constructor initializes a freshly created instance
type Constructor func(ctx context.Context, this *Object, args ...any) error

// Class is a constructible type with an optional parent. Its prototype object
// holds the methods and accessors shared by all instances and is linked to the
// parent's prototype.
type Class struct {
	name      string
	parent    *Class
	prototype *Object
	ctor      Constructor
}

// Name returns the class name
func (c *Class) Name() string {
	return c.name
}

// Parent returns the parent class, nil for a base class
func (c *Class) Parent() *Class {
	return c.parent
}

// Prototype returns the prototype object shared by all instances
func (c *Class) Prototype() *Object {
	return c.prototype
}

// Construct creates an instance and runs the constructor with args. A class
// without its own constructor forwards args to the nearest ancestor constructor.
func (c *Class) Construct(ctx context.Context, args ...any) (*Object, error) {
	this := New(c.prototype)
	this.class = c
	if err := c.initialize(ctx, this, args); err != nil {
		return nil, err
	}
	return this, nil
}

// Super runs the parent constructor on this
func (c *Class) Super(ctx context.Context, this *Object, args ...any) error {
	if c.parent == nil {
		return nil
	}
	return c.parent.initialize(ctx, this, args)
}

func (c *Class) initialize(ctx context.Context, this *Object, args []any) error {
	if c.ctor != nil {
		return c.ctor(ctx, this, args...)
	}
	if c.parent != nil {
		return c.parent.initialize(ctx, this, args)
	}
	return nil
}

// Lineage returns the class followed by its ancestors, most derived first
func (c *Class) Lineage() []*Class {
	var lineage []*Class
	for cur := c; cur != nil; cur = cur.parent {
		lineage = append(lineage, cur)
	}
	return lineage
}

// InstanceOf reports whether obj was produced by cls or one of its subclasses
func InstanceOf(obj *Object, cls *Class) bool {
	if obj == nil || cls == nil {
		return false
	}
	return cls.prototype.IsPrototypeOf(obj)
}

// ClassBuilder assembles a Class
type ClassBuilder struct {
	class     *Class
	accessors map[Key]*Descriptor
	err       error
}

// NewClass starts building a class
func NewClass(name string) *ClassBuilder {
	return &ClassBuilder{
		class: &Class{
			name:      name,
			prototype: New(nil),
		},
		accessors: make(map[Key]*Descriptor),
	}
}

// Extends sets the parent class. A parent that already inherits from the class
// being built is rejected and reported by Build.
func (b *ClassBuilder) Extends(parent *Class) *ClassBuilder {
	var proto *Object
	if parent != nil {
		proto = parent.prototype
	}
	if err := b.class.prototype.SetPrototype(proto); err != nil {
		if b.err == nil {
			b.err = fmt.Errorf("class %s cannot extend %s: %w", b.class.name, parent.name, err)
		}
		return b
	}
	b.class.parent = parent
	return b
}

// Constructor sets the constructor body
func (b *ClassBuilder) Constructor(fn Constructor) *ClassBuilder {
	b.class.ctor = fn
	return b
}

// Method defines a non-enumerable method on the prototype
func (b *ClassBuilder) Method(key Key, fn Method) *ClassBuilder {
	delete(b.accessors, key)
	b.class.prototype.define(key, &Descriptor{
		Value:        fn,
		Writable:     true,
		Configurable: true,
	})
	return b
}

// Getter defines the read half of an accessor on the prototype. A getter and a
// setter defined for the same key form one accessor pair.
func (b *ClassBuilder) Getter(key Key, fn Getter) *ClassBuilder {
	return b.Accessor(key, fn, nil)
}

// Setter defines the write half of an accessor on the prototype
func (b *ClassBuilder) Setter(key Key, fn Setter) *ClassBuilder {
	return b.Accessor(key, nil, fn)
}

// Accessor defines an accessor pair on the prototype, merging with any half
// defined earlier for the same key
func (b *ClassBuilder) Accessor(key Key, get Getter, set Setter) *ClassBuilder {
	d := &Descriptor{Configurable: true}
	if prev, ok := b.accessors[key]; ok {
		d.Get, d.Set = prev.Get, prev.Set
	}
	if get != nil {
		d.Get = get
	}
	if set != nil {
		d.Set = set
	}
	b.accessors[key] = d
	b.class.prototype.define(key, d)
	return b
}

// Value defines a shared writable data property on the prototype
func (b *ClassBuilder) Value(key Key, v any) *ClassBuilder {
	delete(b.accessors, key)
	b.class.prototype.define(key, &Descriptor{
		Value:        v,
		Writable:     true,
		Configurable: true,
	})
	return b
}

// Build returns the class, or the first error recorded while building it.
// The builder must not be used afterwards.
func (b *ClassBuilder) Build() (*Class, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.class, nil
}

// MustBuild is like Build but panics on error. It simplifies static class
// definitions.
func (b *ClassBuilder) MustBuild() *Class {
	class, err := b.Build()
	if err != nil {
		panic(err)
	}
	return class
}
