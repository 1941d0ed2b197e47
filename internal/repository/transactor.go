package repository

import (
	"context"
	"fmt"
)

type TxRunner interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Transactor runs fn as one atomic unit. Repository calls made with the
// context passed to fn take part in it.
type Transactor struct {
	runner TxRunner
}

func NewTransactor(runner TxRunner) *Transactor {
	return &Transactor{
		runner: runner,
	}
}

func (t *Transactor) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := t.runner.Transaction(ctx, fn); err != nil {
		return fmt.Errorf("t.runner.Transaction -> %w", err)
	}

	return nil
}
