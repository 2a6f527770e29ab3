// qr.go — репозиторий QR-записей и их истории сканирований.
// Счётчики сканирований инкрементируются атомарно на уровне SQL
// (UPDATE + INSERT ... ON CONFLICT), а не через read-modify-write.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/goqrstore/internal/domain/model"
)

// qrColumns — список столбцов таблицы qrs для SELECT-запросов.
const qrColumns = `id, qr_id, qr_name, type, qrcode_key, qrcode_url, data,
	status, scan_count, created_by, updated_by, created_at, updated_at`

// QRListFilters — фильтры списка QR-записей.
// Все поля — указатели, nil = фильтр не применяется.
type QRListFilters struct {
	// Type — фильтр по типу QR (exact match)
	Type *string
	// QRName — текстовый поиск по имени (partial match)
	QRName *string
}

// QRRepository — интерфейс доступа к таблицам qrs и qr_scan_history.
type QRRepository interface {
	// Create создаёт QR-запись. ErrConflict при дублировании qr_id.
	Create(ctx context.Context, q *model.QR) error
	// GetByID возвращает QR-запись по UUID (с историей сканирований).
	GetByID(ctx context.Context, id string) (*model.QR, error)
	// GetByQRID возвращает QR-запись по публичному короткому идентификатору.
	GetByQRID(ctx context.Context, qrID string) (*model.QR, error)
	// List возвращает страницу QR-записей (новые первыми) и общее количество.
	List(ctx context.Context, filters QRListFilters, limit, offset int) ([]*model.QR, int, error)
	// Update обновляет QR-запись целиком. ErrNotFound, если запись исчезла.
	Update(ctx context.Context, q *model.QR) error
	// Delete удаляет QR-запись, возвращая снимок удалённой записи.
	Delete(ctx context.Context, id string) (*model.QR, error)
	// ToggleStatus переключает флаг status.
	ToggleStatus(ctx context.Context, id, updatedBy string) (*model.QR, error)
	// RecordScan атомарно инкрементирует общий счётчик и дневной bucket
	// за день day (YYYY-MM-DD). ErrNotFound для отсутствующей или
	// отключённой записи — счётчики при этом не меняются.
	RecordScan(ctx context.Context, qrID, day string) (*model.QR, error)
}

// qrRepo — реализация QRRepository через pgx.
type qrRepo struct {
	db DBTX
	tx *TxRunner
}

// NewQRRepository создаёт репозиторий QR-записей.
// tx используется для транзакционного RecordScan; может быть nil,
// если атомарная запись сканирований не нужна (тесты читающих операций).
func NewQRRepository(db DBTX, tx *TxRunner) QRRepository {
	return &qrRepo{db: db, tx: tx}
}

func (r *qrRepo) Create(ctx context.Context, q *model.QR) error {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}

	data, err := json.Marshal(q.Data)
	if err != nil {
		return fmt.Errorf("ошибка сериализации payload: %w", err)
	}

	query := `
		INSERT INTO qrs (id, qr_id, qr_name, type, qrcode_key, qrcode_url, data,
			status, scan_count, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`

	err = r.db.QueryRow(ctx, query,
		q.ID, q.QRID, q.QRName, string(q.Type), q.QRCode.Key, q.QRCode.URL, data,
		q.Status, q.ScanCount, q.CreatedBy, q.UpdatedBy,
	).Scan(&q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: QR с таким идентификатором уже существует", ErrConflict)
		}
		return fmt.Errorf("ошибка создания QR: %w", err)
	}

	if q.ScanHistory == nil {
		q.ScanHistory = []model.ScanBucket{}
	}
	return nil
}

func (r *qrRepo) GetByID(ctx context.Context, id string) (*model.QR, error) {
	return getQRByColumn(ctx, r.db, "id", id)
}

func (r *qrRepo) GetByQRID(ctx context.Context, qrID string) (*model.QR, error) {
	return getQRByColumn(ctx, r.db, "qr_id", qrID)
}

func (r *qrRepo) List(ctx context.Context, filters QRListFilters, limit, offset int) ([]*model.QR, int, error) {
	where, args := buildQRWhere(filters, 1)
	argNum := len(args) + 1

	dataQuery := fmt.Sprintf(
		`SELECT %s FROM qrs %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		qrColumns, where, argNum, argNum+1,
	)
	rows, err := r.db.Query(ctx, dataQuery, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения списка QR: %w", err)
	}
	defer rows.Close()

	var result []*model.QR
	var ids []string
	for rows.Next() {
		q, scanErr := scanQRRow(rows)
		if scanErr != nil {
			return nil, 0, scanErr
		}
		result = append(result, q)
		ids = append(ids, q.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("ошибка итерации результатов: %w", err)
	}

	// История сканирований одним запросом для всей страницы
	if len(ids) > 0 {
		histories, histErr := loadScanHistories(ctx, r.db, ids)
		if histErr != nil {
			return nil, 0, histErr
		}
		for _, q := range result {
			q.ScanHistory = histories[q.ID]
			if q.ScanHistory == nil {
				q.ScanHistory = []model.ScanBucket{}
			}
		}
	}

	countWhere, countArgs := buildQRWhere(filters, 1)
	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM qrs %s`, countWhere)
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчёта QR: %w", err)
	}

	return result, total, nil
}

func (r *qrRepo) Update(ctx context.Context, q *model.QR) error {
	data, err := json.Marshal(q.Data)
	if err != nil {
		return fmt.Errorf("ошибка сериализации payload: %w", err)
	}

	query := `
		UPDATE qrs
		SET qr_name = $2, type = $3, data = $4, status = $5, updated_by = $6, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	err = r.db.QueryRow(ctx, query,
		q.ID, q.QRName, string(q.Type), data, q.Status, q.UpdatedBy,
	).Scan(&q.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("ошибка обновления QR: %w", err)
	}
	return nil
}

func (r *qrRepo) Delete(ctx context.Context, id string) (*model.QR, error) {
	// Снимок записи с историей до удаления: каскад удалит qr_scan_history
	q, err := getQRByColumn(ctx, r.db, "id", id)
	if err != nil {
		return nil, err
	}

	tag, err := r.db.Exec(ctx, `DELETE FROM qrs WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("ошибка удаления QR: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return q, nil
}

func (r *qrRepo) ToggleStatus(ctx context.Context, id, updatedBy string) (*model.QR, error) {
	query := fmt.Sprintf(`
		UPDATE qrs
		SET status = NOT status, updated_by = $2, updated_at = now()
		WHERE id = $1
		RETURNING %s`, qrColumns)

	q, err := scanQRRow(r.db.QueryRow(ctx, query, id, updatedBy))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := attachScanHistory(ctx, r.db, q); err != nil {
		return nil, err
	}
	return q, nil
}

// RecordScan выполняет в одной транзакции условный инкремент общего
// счётчика (только для включённых записей) и upsert дневного bucket,
// закрывая гонку read-modify-write при конкурентных сканированиях.
func (r *qrRepo) RecordScan(ctx context.Context, qrID, day string) (*model.QR, error) {
	if r.tx == nil {
		return nil, fmt.Errorf("репозиторий создан без TxRunner")
	}

	var result *model.QR
	err := r.tx.RunInTx(ctx, func(tx pgx.Tx) error {
		var id string
		err := tx.QueryRow(ctx, `
			UPDATE qrs
			SET scan_count = scan_count + 1, updated_at = now()
			WHERE qr_id = $1 AND status
			RETURNING id`, qrID,
		).Scan(&id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				// Запись отсутствует или отключена — счётчики не трогаем
				return ErrNotFound
			}
			return fmt.Errorf("ошибка инкремента счётчика сканирований: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO qr_scan_history (qr_id, scan_date, scan_count)
			VALUES ($1, $2, 1)
			ON CONFLICT (qr_id, scan_date)
			DO UPDATE SET scan_count = qr_scan_history.scan_count + 1`,
			id, day,
		)
		if err != nil {
			return fmt.Errorf("ошибка upsert дневного bucket: %w", err)
		}

		q, getErr := getQRByColumn(ctx, tx, "id", id)
		if getErr != nil {
			return getErr
		}
		result = q
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// --- Вспомогательные функции ---

// rowScanner — общий интерфейс pgx.Row и pgx.Rows для scanQRRow.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanQRRow сканирует одну строку qrs и разбирает payload по типу записи.
func scanQRRow(row rowScanner) (*model.QR, error) {
	q := &model.QR{}
	var typ string
	var rawData []byte

	err := row.Scan(
		&q.ID, &q.QRID, &q.QRName, &typ, &q.QRCode.Key, &q.QRCode.URL, &rawData,
		&q.Status, &q.ScanCount, &q.CreatedBy, &q.UpdatedBy, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("ошибка сканирования QR: %w", err)
	}

	q.Type = model.QRType(typ)
	q.Data, err = model.ParsePayload(q.Type, rawData)
	if err != nil {
		return nil, fmt.Errorf("ошибка разбора payload записи %s: %w", q.ID, err)
	}
	return q, nil
}

// getQRByColumn возвращает QR-запись c историей по значению столбца.
func getQRByColumn(ctx context.Context, db DBTX, column, value string) (*model.QR, error) {
	query := fmt.Sprintf(`SELECT %s FROM qrs WHERE %s = $1`, qrColumns, column)

	q, err := scanQRRow(db.QueryRow(ctx, query, value))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := attachScanHistory(ctx, db, q); err != nil {
		return nil, err
	}
	return q, nil
}

// attachScanHistory загружает историю сканирований одной записи.
func attachScanHistory(ctx context.Context, db DBTX, q *model.QR) error {
	histories, err := loadScanHistories(ctx, db, []string{q.ID})
	if err != nil {
		return err
	}
	q.ScanHistory = histories[q.ID]
	if q.ScanHistory == nil {
		q.ScanHistory = []model.ScanBucket{}
	}
	return nil
}

// loadScanHistories загружает историю сканирований для набора записей.
// Порядок bucket'ов — порядок первого появления дня (столбец seq).
func loadScanHistories(ctx context.Context, db DBTX, ids []string) (map[string][]model.ScanBucket, error) {
	rows, err := db.Query(ctx, `
		SELECT qr_id, scan_date, scan_count
		FROM qr_scan_history
		WHERE qr_id = ANY($1)
		ORDER BY seq`, ids,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки истории сканирований: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]model.ScanBucket, len(ids))
	for rows.Next() {
		var qrID string
		var b model.ScanBucket
		if err := rows.Scan(&qrID, &b.Date, &b.ScanCount); err != nil {
			return nil, fmt.Errorf("ошибка сканирования bucket: %w", err)
		}
		result[qrID] = append(result[qrID], b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка итерации истории: %w", err)
	}
	return result, nil
}

// buildQRWhere строит WHERE-условие и аргументы для фильтрации QR-записей.
func buildQRWhere(filters QRListFilters, startArg int) (string, []any) {
	var conditions []string
	var args []any
	argNum := startArg

	if filters.Type != nil && *filters.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argNum))
		args = append(args, *filters.Type)
		argNum++
	}
	if filters.QRName != nil && *filters.QRName != "" {
		conditions = append(conditions, fmt.Sprintf("qr_name ILIKE $%d", argNum))
		args = append(args, "%"+*filters.QRName+"%")
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}
	return where, args
}
