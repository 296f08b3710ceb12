package descriptor

import (
	"errors"
	"fmt"

	"github.com/conduit-lang/clsproxy/pkg/object"
)

// MaxChainDepth bounds how many prototypes Resolve visits before giving up
const MaxChainDepth = 4096

// ErrChainTooDeep is returned when a prototype chain exceeds MaxChainDepth
var ErrChainTooDeep = errors.New("prototype chain too deep")

// Lookup finds the descriptor for key starting at target. The boolean is false
// when no object in the chain defines key; absence is a normal outcome, not an
// error. An error means the chain could not be walked.
type Lookup func(target *object.Object, key object.Key) (*object.Descriptor, bool, error)

// Resolve returns target's own descriptor for key, or the descriptor of the
// nearest ancestor that defines it.
func Resolve(target *object.Object, key object.Key) (*object.Descriptor, bool, error) {
	return resolve(target, key, 0)
}

func resolve(target *object.Object, key object.Key, depth int) (*object.Descriptor, bool, error) {
	if target == nil {
		return nil, false, nil
	}
	if depth > MaxChainDepth {
		return nil, false, fmt.Errorf("%w: resolving %s visited more than %d objects", ErrChainTooDeep, key, MaxChainDepth)
	}
	if d, ok := target.OwnDescriptor(key); ok {
		return d, true, nil
	}
	return resolve(target.Prototype(), key, depth+1)
}
