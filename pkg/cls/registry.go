package cls

import (
	"fmt"
	"sync"

	"github.com/conduit-lang/clsproxy/pkg/object"
	"go.uber.org/zap"
)

// Registry maps names to namespaces
type Registry struct {
	mu         sync.RWMutex
	namespaces map[any]*Namespace
	order      []any
	logger     *zap.Logger
}

// Default is the process-wide registry used by the package-level helpers
var Default = NewRegistry(nil)

// NewRegistry creates an empty registry. A nil logger disables logging.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		namespaces: make(map[any]*Namespace),
		logger:     logger,
	}
}

// ValidateName checks that name is a non-empty string or a symbol
func ValidateName(name any) error {
	switch n := name.(type) {
	case string:
		if n == "" {
			return fmt.Errorf("%w: empty string", ErrInvalidName)
		}
		return nil
	case *object.Symbol:
		if n == nil {
			return fmt.Errorf("%w: nil symbol", ErrInvalidName)
		}
		return nil
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrInvalidName, name)
	}
}

// Get returns the namespace registered under name
func (r *Registry) Get(name any) (*Namespace, bool) {
	if ValidateName(name) != nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ns, ok := r.namespaces[name]
	return ns, ok
}

// Create registers a new namespace
func (r *Registry) Create(name any) (*Namespace, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.namespaces[name]; ok {
		return nil, fmt.Errorf("%w: %v", ErrNamespaceExists, name)
	}
	return r.create(name), nil
}

// GetOrCreate returns the namespace registered under name, creating it on first use
func (r *Registry) GetOrCreate(name any) (*Namespace, error) {
	if ns, ok := r.Get(name); ok {
		return ns, nil
	}
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check: another caller may have created it meanwhile
	if ns, ok := r.namespaces[name]; ok {
		return ns, nil
	}
	return r.create(name), nil
}

// create registers a namespace; callers hold the write lock
func (r *Registry) create(name any) *Namespace {
	ns := &Namespace{
		name:   name,
		logger: r.logger,
	}
	r.namespaces[name] = ns
	r.order = append(r.order, name)
	r.logger.Debug("namespace created", zap.Any("namespace", name))
	return ns
}

// Destroy removes the namespace registered under name. Frames already bound
// keep working; later lookups create a new, unrelated namespace.
func (r *Registry) Destroy(name any) bool {
	if ValidateName(name) != nil {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.namespaces[name]; !ok {
		return false
	}
	delete(r.namespaces, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.logger.Debug("namespace destroyed", zap.Any("namespace", name))
	return true
}

// Reset removes every namespace
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.namespaces = make(map[any]*Namespace)
	r.order = nil
}

// Names returns registered names in creation order
func (r *Registry) Names() []any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]any, len(r.order))
	copy(names, r.order)
	return names
}

// GetNamespace returns a namespace from the default registry
func GetNamespace(name any) (*Namespace, bool) {
	return Default.Get(name)
}

// CreateNamespace creates a namespace in the default registry
func CreateNamespace(name any) (*Namespace, error) {
	return Default.Create(name)
}

// GetOrCreateNamespace returns or creates a namespace in the default registry
func GetOrCreateNamespace(name any) (*Namespace, error) {
	return Default.GetOrCreate(name)
}

// DestroyNamespace removes a namespace from the default registry
func DestroyNamespace(name any) bool {
	return Default.Destroy(name)
}

// Reset clears the default registry (used for testing)
func Reset() {
	Default.Reset()
}
