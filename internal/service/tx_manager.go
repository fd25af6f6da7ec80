package service

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

type TxManager interface {
	WithTx(ctx context.Context, fn func(pgx.Tx) error) error
}
type PgxPoolIface interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// PgxTxManager все записи сервисов идут через WithTx: ошибка или паника откатывают транзакцию
type PgxTxManager struct {
	pool PgxPoolIface
	opts pgx.TxOptions
}

func NewPgxTxManager(pool PgxPoolIface) *PgxTxManager {
	return &PgxTxManager{pool: pool}
}

// NewPgxTxManagerWithOptions батч очистки работает в ReadCommitted
func NewPgxTxManagerWithOptions(pool PgxPoolIface, opts pgx.TxOptions) *PgxTxManager {
	return &PgxTxManager{pool: pool, opts: opts}
}

func (m *PgxTxManager) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := m.pool.BeginTx(ctx, m.opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}
