package cls

import (
	"sync"

	"github.com/google/uuid"
)

// Frame is one active context. Values set on a frame are visible to its
// child frames; a child's own values shadow its parent's.
type Frame struct {
	id     string
	parent *Frame

	mu     sync.RWMutex
	values map[any]any
}

func newFrame(parent *Frame) *Frame {
	return &Frame{
		id:     uuid.NewString(),
		parent: parent,
		values: make(map[any]any),
	}
}

// ID returns the frame's unique identifier
func (f *Frame) ID() string {
	return f.id
}

// Parent returns the frame this one was entered from, nil for a root frame
func (f *Frame) Parent() *Frame {
	return f.parent
}

// Get looks up key on the frame, then on its ancestors
func (f *Frame) Get(key any) (any, bool) {
	for cur := f; cur != nil; cur = cur.parent {
		cur.mu.RLock()
		v, ok := cur.values[key]
		cur.mu.RUnlock()
		if ok {
			return v, true
		}
	}
	return nil, false
}

// Set stores a value on this frame only
func (f *Frame) Set(key, value any) {
	f.mu.Lock()
	f.values[key] = value
	f.mu.Unlock()
}
