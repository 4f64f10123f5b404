// Package repository defines data access contracts. Implementations live in
// subpackages (postgres) and contain SQL only, no business rules.
package repository

import "context"

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
type PageResult[T any] struct {
	Items []T
	Total int
}

// Transactor runs fn inside a database transaction. Repository calls made
// with the ctx passed to fn join that transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
