// Пакет repository — доступ к таблицам QR Store (admins, qrs,
// qr_scan_history) в PostgreSQL. Все запросы — чистый SQL через pgx,
// без ORM.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Коды ошибок PostgreSQL, различаемые репозиториями.
const (
	pgCodeUniqueViolation     = "23505"
	pgCodeForeignKeyViolation = "23503"
)

// Ошибки слоя репозиториев.
var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("запись не найдена")
	// ErrConflict — конфликт: дублирующийся ресурс либо запись,
	// на которую ссылаются другие данные.
	ErrConflict = errors.New("конфликт — запись уже существует или используется")
)

// DBTX — исполнитель SQL-запросов. Реализуется как *pgxpool.Pool, так
// и pgx.Tx: одни и те же методы репозитория работают и сами по себе,
// и внутри транзакции регистрации сканирования.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxRunner выполняет операции репозиториев в одной транзакции.
// Используется QRRepository.RecordScan: условный инкремент счётчика
// и upsert дневного bucket'а должны быть атомарны.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner создаёт TxRunner над пулом соединений.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunInTx выполняет fn внутри транзакции: ошибка fn откатывает её,
// успех — коммитит.
func (r *TxRunner) RunInTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // откат после коммита — no-op

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// pgErrCode возвращает код ошибки PostgreSQL или пустую строку.
func pgErrCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isUniqueViolation: нарушение уникальности (email администратора,
// публичный qr_id, дневной bucket сканирований).
func isUniqueViolation(err error) bool {
	return pgErrCode(err) == pgCodeUniqueViolation
}

// isForeignKeyViolation: нарушение внешнего ключа — например, удаление
// администратора, на которого ссылаются created_by/updated_by записей qrs.
func isForeignKeyViolation(err error) bool {
	return pgErrCode(err) == pgCodeForeignKeyViolation
}
