// Package validation implements the rule-chain engine behind every mutating
// operation: ordered rules per operation, full error accumulation, and
// transaction-scoped data rules so uniqueness and link checks see the same
// snapshot the write will.
package validation

import (
	"context"

	"github.com/castellan/castellan/internal/admin/store"
	"github.com/castellan/castellan/pkg/result"
)

// Operation selects which rule chain applies.
type Operation int

const (
	OpCreate Operation = iota
	OpUpdate
	OpDelete
)

// Rule inspects the candidate entity and reports zero or more errors. Rules
// must not mutate the entity or write through the tx.
type Rule[T any] func(ctx context.Context, tx store.Tx, entity T) []result.Error

// Rules holds the ordered rule chains for one entity type. Chains are built
// at construction time and never change afterwards, so Validate is safe for
// concurrent use.
type Rules[T any] struct {
	chains map[Operation][]Rule[T]
}

func NewRules[T any]() *Rules[T] {
	return &Rules[T]{chains: make(map[Operation][]Rule[T])}
}

// On appends rules to the chain for each given operation, preserving
// registration order. Returns the receiver for chaining.
func (r *Rules[T]) On(ops []Operation, rules ...Rule[T]) *Rules[T] {
	for _, op := range ops {
		r.chains[op] = append(r.chains[op], rules...)
	}
	return r
}

// Validate runs every rule registered for op, in order, accumulating all
// errors rather than stopping at the first. Zero errors yields
// Accepted(entity).
func (r *Rules[T]) Validate(ctx context.Context, tx store.Tx, entity T, op Operation) result.Result[T] {
	var errs []result.Error
	for _, rule := range r.chains[op] {
		errs = append(errs, rule(ctx, tx, entity)...)
	}
	if len(errs) > 0 {
		return result.Reject[T](errs...)
	}
	return result.Accept(entity)
}
