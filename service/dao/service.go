// Package dao defines the generic data access contract shared by the in-memory
// registries: the execution unit registry and the job history.
package dao

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Load and Delete for an unknown key.
	ErrNotFound = errors.New("dao: record not found")
	// ErrInvalidID is returned by Save when the record key is the zero value.
	ErrInvalidID = errors.New("dao: zero record key")
	// ErrNilEntity is returned by Save for a nil record.
	ErrNilEntity = errors.New("dao: nil record")
)

// Service stores records of type T keyed by K.
type Service[K comparable, T any] interface {
	Save(ctx context.Context, t *T) error

	Load(ctx context.Context, id K) (*T, error)

	Delete(ctx context.Context, id K) error

	List(ctx context.Context, parameters ...*Parameter) ([]*T, error)
}

// Parameter narrows a List call to records whose Name field takes one of Values.
type Parameter struct {
	Name   string
	Values []string
}

// Accepts reports whether value is one of the parameter values.
func (p *Parameter) Accepts(value string) bool {
	for _, candidate := range p.Values {
		if candidate == value {
			return true
		}
	}
	return false
}

func NewParameter(name string, values ...string) *Parameter {
	return &Parameter{Name: name, Values: values}
}
