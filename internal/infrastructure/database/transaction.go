package database

import (
	"context"

	"gorm.io/gorm"
)

type txContextKey struct{}

// WithTx stores a transaction handle in the context so repository calls
// made during a transaction join it.
func WithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txContextKey{}, tx)
}

// TxFrom returns the transaction handle from the context, or the fallback
// connection when no transaction is active.
func TxFrom(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txContextKey{}).(*gorm.DB); ok {
		return tx
	}
	return fallback
}

// Transactor runs callbacks inside database transactions.
type Transactor struct {
	db *gorm.DB
}

// NewTransactor builds a transactor over the given connection.
func NewTransactor(db *gorm.DB) *Transactor {
	return &Transactor{db: db}
}

// Transaction runs fn inside a transaction. The context passed to fn
// carries the transaction handle for repositories to pick up.
func (t *Transactor) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(WithTx(ctx, tx))
	})
}
