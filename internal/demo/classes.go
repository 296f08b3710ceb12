// Package demo defines a small class hierarchy used by the CLI and by tests
// to show context flowing through wrapped objects.
package demo

import (
	"context"
	"errors"
	"fmt"

	"github.com/conduit-lang/clsproxy/pkg/cls"
	"github.com/conduit-lang/clsproxy/pkg/middleware"
	"github.com/conduit-lang/clsproxy/pkg/object"
	"github.com/conduit-lang/clsproxy/pkg/txscope"
)

// Schema creates the table deposits are journaled to
const Schema = `CREATE TABLE IF NOT EXISTS entries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	account TEXT NOT NULL,
	amount INTEGER NOT NULL
)`

// Public member keys
var (
	KeyID       = object.StringKey("id")
	KeyDescribe = object.StringKey("describe")
	KeyBalance  = object.StringKey("balance")
	KeyOwner    = object.StringKey("owner")
	KeyDeposit  = object.StringKey("deposit")
	KeyTrace    = object.StringKey("trace")
)

// Private state keys
var (
	keyID      = object.StringKey("_id")
	keyOwner   = object.StringKey("_owner")
	keyBalance = object.StringKey("_balance")
)

var (
	// ErrInvalidAmount is returned when depositing a non-positive amount
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrInvalidOwner is returned when assigning an empty owner
	ErrInvalidOwner = errors.New("owner must be a non-empty string")
	// ErrBadArgument is returned when a constructor or method gets the wrong argument type
	ErrBadArgument = errors.New("bad argument")
)

// Trace reports the frame a method body observed
type Trace struct {
	Active    bool   `json:"active"`
	Frame     string `json:"frame,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Classes holds the demo hierarchy: Account extends Entity
type Classes struct {
	Entity  *object.Class
	Account *object.Class
}

// NewClasses builds the demo classes. Account.trace reports frames of ns;
// deposits are journaled through tx when it is non-nil.
func NewClasses(ns *cls.Namespace, tx *txscope.Manager) Classes {
	entity := object.NewClass("Entity").
		Constructor(func(ctx context.Context, this *object.Object, args ...any) error {
			id, err := stringArg(args, 0)
			if err != nil {
				return err
			}
			_, err = this.Set(ctx, keyID, id)
			return err
		}).
		Getter(KeyID, func(ctx context.Context, this *object.Object) (any, error) {
			return this.Get(ctx, keyID)
		}).
		Method(KeyDescribe, func(ctx context.Context, this *object.Object, args ...any) (any, error) {
			id, err := this.Get(ctx, keyID)
			if err != nil {
				return nil, err
			}
			return fmt.Sprintf("%s %v", this.Class().Name(), id), nil
		}).
		MustBuild()

	var account *object.Class
	account = object.NewClass("Account").
		Extends(entity).
		Constructor(func(ctx context.Context, this *object.Object, args ...any) error {
			if err := account.Super(ctx, this, args...); err != nil {
				return err
			}
			owner, err := stringArg(args, 1)
			if err != nil {
				return err
			}
			balance, err := intArg(args, 2)
			if err != nil {
				return err
			}
			if _, err := this.Set(ctx, keyOwner, owner); err != nil {
				return err
			}
			_, err = this.Set(ctx, keyBalance, balance)
			return err
		}).
		Getter(KeyBalance, func(ctx context.Context, this *object.Object) (any, error) {
			return this.Get(ctx, keyBalance)
		}).
		Accessor(KeyOwner,
			func(ctx context.Context, this *object.Object) (any, error) {
				return this.Get(ctx, keyOwner)
			},
			func(ctx context.Context, this *object.Object, value any) error {
				owner, ok := value.(string)
				if !ok || owner == "" {
					return ErrInvalidOwner
				}
				_, err := this.Set(ctx, keyOwner, owner)
				return err
			},
		).
		Method(KeyDeposit, func(ctx context.Context, this *object.Object, args ...any) (any, error) {
			amount, err := intArg(args, 0)
			if err != nil {
				return nil, err
			}
			if amount <= 0 {
				return nil, ErrInvalidAmount
			}

			current, err := this.Get(ctx, keyBalance)
			if err != nil {
				return nil, err
			}
			balance, ok := current.(int)
			if !ok {
				return nil, fmt.Errorf("%w: balance holds %T", ErrBadArgument, current)
			}
			balance += amount

			if tx != nil {
				id, _ := this.Get(ctx, keyID)
				if _, err := tx.ExecContext(ctx, `INSERT INTO entries (account, amount) VALUES (?, ?)`, id, amount); err != nil {
					return nil, err
				}
			}
			if _, err := this.Set(ctx, keyBalance, balance); err != nil {
				return nil, err
			}
			return balance, nil
		}).
		Method(KeyTrace, func(ctx context.Context, this *object.Object, args ...any) (any, error) {
			frame, ok := ns.Active(ctx)
			if !ok {
				return Trace{}, nil
			}
			return Trace{
				Active:    true,
				Frame:     frame.ID(),
				RequestID: middleware.RequestID(ctx, ns),
			}, nil
		}).
		MustBuild()

	return Classes{Entity: entity, Account: account}
}

func stringArg(args []any, i int) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("%w: missing argument %d", ErrBadArgument, i)
	}
	s, ok := args[i].(string)
	if !ok {
		return "", fmt.Errorf("%w: argument %d must be a string, got %T", ErrBadArgument, i, args[i])
	}
	return s, nil
}

func intArg(args []any, i int) (int, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("%w: missing argument %d", ErrBadArgument, i)
	}
	n, ok := args[i].(int)
	if !ok {
		return 0, fmt.Errorf("%w: argument %d must be an int, got %T", ErrBadArgument, i, args[i])
	}
	return n, nil
}
