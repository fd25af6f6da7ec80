package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	tryAdvisoryLockQuery = `SELECT pg_try_advisory_lock(hashtext($1))`
	advisoryUnlockQuery  = `SELECT pg_advisory_unlock(hashtext($1))`
)

// Locker не дает двум экземплярам одного батча работать одновременно
type Locker interface {
	TryLock(ctx context.Context, name string) (unlock func(), acquired bool, err error)
}

// LockConn соединение, на котором держится сессионная блокировка
type LockConn interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Release()
}

type AcquireFunc func(ctx context.Context) (LockConn, error)

type AdvisoryLocker struct {
	acquire AcquireFunc
	log     *slog.Logger
}

func NewAdvisoryLocker(pool *pgxpool.Pool, log *slog.Logger) *AdvisoryLocker {
	return NewAdvisoryLockerWithAcquire(func(ctx context.Context) (LockConn, error) {
		return pool.Acquire(ctx)
	}, log)
}

func NewAdvisoryLockerWithAcquire(acquire AcquireFunc, log *slog.Logger) *AdvisoryLocker {
	return &AdvisoryLocker{acquire: acquire, log: log}
}

func (l *AdvisoryLocker) TryLock(ctx context.Context, name string) (func(), bool, error) {
	const op = "db.TryLock"

	conn, err := l.acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("%s: acquire connection: %w", op, err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockQuery, name).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		// контекст запуска уже может быть отменен
		if _, err := conn.Exec(context.Background(), advisoryUnlockQuery, name); err != nil {
			l.log.Error("не удалось снять advisory lock",
				slog.String("op", op),
				slog.String("lock", name),
				slog.String("error", err.Error()))
		}
		conn.Release()
	}
	return unlock, true, nil
}
