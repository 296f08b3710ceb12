package object

import "fmt"

// Symbol is a unique property key. Two symbols are equal only when they are
// the same pointer, whatever their descriptions.
type Symbol struct {
	description string
}

// NewSymbol creates a new unique symbol
func NewSymbol(description string) *Symbol {
	return &Symbol{description: description}
}

// Description returns the symbol's description
func (s *Symbol) Description() string {
	return s.description
}

// String returns the symbol in Symbol(description) form
func (s *Symbol) String() string {
	return fmt.Sprintf("Symbol(%s)", s.description)
}

// Key identifies a property. It holds either a string name or a symbol and is
// comparable, so it can be used directly as a map key.
type Key struct {
	name   string
	symbol *Symbol
}

// StringKey returns a key for a named property
func StringKey(name string) Key {
	return Key{name: name}
}

// SymbolKey returns a key for a symbol-keyed property
func SymbolKey(sym *Symbol) Key {
	return Key{symbol: sym}
}

// IsSymbol reports whether the key is symbol-keyed
func (k Key) IsSymbol() bool {
	return k.symbol != nil
}

// Name returns the string name of a named key
func (k Key) Name() string {
	return k.name
}

// Symbol returns the symbol of a symbol-keyed key, nil otherwise
func (k Key) Symbol() *Symbol {
	return k.symbol
}

// String returns a printable form of the key
func (k Key) String() string {
	if k.symbol != nil {
		return k.symbol.String()
	}
	return k.name
}
