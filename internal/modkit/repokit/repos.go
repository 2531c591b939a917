// Package repokit holds the SQL seams repositories are written against
package repokit

import (
	"context"

	"bunshare/internal/platform/store"
)

type (
	// Queryer is the read and write surface repos bind to
	Queryer = store.RowQuerier

	// TxRunner is a Queryer that can open transactions
	TxRunner = store.TxRunner

	// Rows is an iterated result set
	Rows = store.Rows

	// Row is a single-row result
	Row = store.Row

	// CommandTag is the outcome of a write
	CommandTag = store.CommandTag
)

// WithTx runs fn in a transaction on tx, binding a fresh T to the tx queryer
func WithTx[T any](ctx context.Context, tx TxRunner, b Binder[T], fn func(T) error) error {
	return tx.Tx(ctx, func(q Queryer) error { return fn(b.Bind(q)) })
}
