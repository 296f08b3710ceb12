package object

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrPrototypeCycle is returned when a prototype link would make the chain cyclic
	ErrPrototypeCycle = errors.New("cyclic prototype chain")
	// ErrNotConfigurable is returned when redefining a non-configurable property
	ErrNotConfigurable = errors.New("property is not configurable")
	// ErrNilDescriptor is returned when defining a property with a nil descriptor
	ErrNilDescriptor = errors.New("nil property descriptor")
	// ErrNotCallable is returned when calling a member that is not a function
	ErrNotCallable = errors.New("member is not callable")
)

// Object is a set of own properties linked to an optional prototype.
// Prototype chains are always acyclic: SetPrototype refuses links that would
// close a loop, so walking the chain always terminates.
type Object struct {
	mu    sync.RWMutex
	props map[Key]*Descriptor
	keys  []Key // insertion order
	proto *Object
	class *Class
}

// New creates an empty object whose prototype is proto (may be nil)
func New(proto *Object) *Object {
	return &Object{
		props: make(map[Key]*Descriptor),
		proto: proto,
	}
}

// Prototype returns the object's prototype, nil at the end of the chain
func (o *Object) Prototype() *Object {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.proto
}

// protoMu serializes prototype relinking so that two concurrent links cannot
// close a cycle that neither check saw
var protoMu sync.Mutex

// SetPrototype links the object to a new prototype
func (o *Object) SetPrototype(proto *Object) error {
	protoMu.Lock()
	defer protoMu.Unlock()

	for p := proto; p != nil; p = p.Prototype() {
		if p == o {
			return ErrPrototypeCycle
		}
	}

	o.mu.Lock()
	o.proto = proto
	o.mu.Unlock()
	return nil
}

// Class returns the class that constructed the object, if any
func (o *Object) Class() *Class {
	return o.class
}

// DefineProperty creates or replaces an own property
func (o *Object) DefineProperty(key Key, d *Descriptor) error {
	if d == nil {
		return ErrNilDescriptor
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if existing, ok := o.props[key]; ok && !existing.Configurable {
		return fmt.Errorf("%w: %s", ErrNotConfigurable, key)
	}
	o.define(key, d)
	return nil
}

// define stores a descriptor; callers hold the write lock
func (o *Object) define(key Key, d *Descriptor) {
	if _, ok := o.props[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.props[key] = d
}

// OwnDescriptor returns the descriptor of an own property
func (o *Object) OwnDescriptor(key Key) (*Descriptor, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	d, ok := o.props[key]
	return d, ok
}

// HasOwn reports whether the object itself defines key
func (o *Object) HasOwn(key Key) bool {
	_, ok := o.OwnDescriptor(key)
	return ok
}

// OwnKeys returns own property keys in definition order
func (o *Object) OwnKeys() []Key {
	o.mu.RLock()
	defer o.mu.RUnlock()
	keys := make([]Key, len(o.keys))
	copy(keys, o.keys)
	return keys
}

// Delete removes a configurable own property. Deleting a missing key succeeds.
func (o *Object) Delete(key Key) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	d, ok := o.props[key]
	if !ok {
		return true
	}
	if !d.Configurable {
		return false
	}
	delete(o.props, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
	return true
}

// IsPrototypeOf reports whether o appears in other's prototype chain
func (o *Object) IsPrototypeOf(other *Object) bool {
	if other == nil {
		return false
	}
	for p := other.Prototype(); p != nil; p = p.Prototype() {
		if p == o {
			return true
		}
	}
	return false
}

// find walks the chain starting at o and returns the first descriptor for key
func (o *Object) find(key Key) (*Descriptor, bool) {
	for cur := o; cur != nil; cur = cur.Prototype() {
		if d, ok := cur.OwnDescriptor(key); ok {
			return d, true
		}
	}
	return nil, false
}

// Get reads a property, walking the prototype chain. Unknown keys yield nil.
func (o *Object) Get(ctx context.Context, key Key) (any, error) {
	return o.GetWithReceiver(ctx, key, o)
}

// GetWithReceiver reads a property found from o, running getters with receiver as this
func (o *Object) GetWithReceiver(ctx context.Context, key Key, receiver *Object) (any, error) {
	d, ok := o.find(key)
	if !ok {
		return nil, nil
	}
	if d.IsAccessor() {
		if d.Get == nil {
			return nil, nil
		}
		return d.Get(ctx, receiver)
	}
	return d.Value, nil
}

// Set writes a property. It reports false when the write is refused: an
// inherited accessor without a setter or a non-writable data property.
func (o *Object) Set(ctx context.Context, key Key, value any) (bool, error) {
	return o.SetWithReceiver(ctx, key, value, o)
}

// SetWithReceiver writes a property found from o. Setters run with receiver as
// this; data writes land as an own property of receiver.
func (o *Object) SetWithReceiver(ctx context.Context, key Key, value any, receiver *Object) (bool, error) {
	d, ok := o.find(key)
	if ok {
		if d.IsAccessor() {
			if d.Set == nil {
				return false, nil
			}
			if err := d.Set(ctx, receiver, value); err != nil {
				return false, err
			}
			return true, nil
		}
		if !d.Writable {
			return false, nil
		}
	}

	receiver.mu.Lock()
	defer receiver.mu.Unlock()

	if own, exists := receiver.props[key]; exists {
		if own.IsAccessor() || !own.Writable {
			return false, nil
		}
		receiver.define(key, &Descriptor{
			Value:        value,
			Writable:     own.Writable,
			Enumerable:   own.Enumerable,
			Configurable: own.Configurable,
		})
		return true, nil
	}
	receiver.define(key, Data(value, true))
	return true, nil
}

// Call invokes the method stored under key with o as this
func (o *Object) Call(ctx context.Context, key Key, args ...any) (any, error) {
	v, err := o.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	fn, ok := AsMethod(v)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotCallable, key)
	}
	return fn(ctx, o, args...)
}
