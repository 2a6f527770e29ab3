// admin.go — репозиторий администраторов.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/goqrstore/internal/domain/model"
)

// adminColumns — список столбцов таблицы admins для SELECT-запросов.
const adminColumns = `id, username, email, phone, password_hash, created_at, updated_at`

// AdminListFilters — фильтры списка администраторов.
// Все поля — указатели, nil = фильтр не применяется.
type AdminListFilters struct {
	// Username — фильтр по имени пользователя (partial match)
	Username *string
	// Email — фильтр по email (exact match)
	Email *string
}

// AdminRepository — интерфейс доступа к таблице admins.
type AdminRepository interface {
	// Create создаёт администратора. ErrConflict при дублировании email/phone.
	Create(ctx context.Context, a *model.Admin) error
	// GetByID возвращает администратора по UUID.
	GetByID(ctx context.Context, id string) (*model.Admin, error)
	// GetByEmail возвращает администратора по email.
	GetByEmail(ctx context.Context, email string) (*model.Admin, error)
	// List возвращает страницу администраторов (новые первыми) и общее количество.
	List(ctx context.Context, filters AdminListFilters, limit, offset int) ([]*model.Admin, int, error)
	// Update обновляет администратора целиком.
	Update(ctx context.Context, a *model.Admin) error
	// Delete удаляет администратора, возвращая удалённую запись.
	// ErrConflict, если на администратора ссылаются QR-записи.
	Delete(ctx context.Context, id string) (*model.Admin, error)
}

// adminRepo — реализация AdminRepository через pgx.
type adminRepo struct {
	db DBTX
}

// NewAdminRepository создаёт репозиторий администраторов.
func NewAdminRepository(db DBTX) AdminRepository {
	return &adminRepo{db: db}
}

func (r *adminRepo) Create(ctx context.Context, a *model.Admin) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}

	query := `
		INSERT INTO admins (id, username, email, phone, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		a.ID, a.Username, a.Email, a.Phone, a.PasswordHash,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: email или телефон уже заняты", ErrConflict)
		}
		return fmt.Errorf("ошибка создания администратора: %w", err)
	}
	return nil
}

func (r *adminRepo) GetByID(ctx context.Context, id string) (*model.Admin, error) {
	query := fmt.Sprintf(`SELECT %s FROM admins WHERE id = $1`, adminColumns)
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

func (r *adminRepo) GetByEmail(ctx context.Context, email string) (*model.Admin, error) {
	query := fmt.Sprintf(`SELECT %s FROM admins WHERE email = $1`, adminColumns)
	return r.scanOne(r.db.QueryRow(ctx, query, email))
}

func (r *adminRepo) List(ctx context.Context, filters AdminListFilters, limit, offset int) ([]*model.Admin, int, error) {
	where, args := buildAdminWhere(filters, 1)
	argNum := len(args) + 1

	dataQuery := fmt.Sprintf(
		`SELECT %s FROM admins %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		adminColumns, where, argNum, argNum+1,
	)
	rows, err := r.db.Query(ctx, dataQuery, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения списка администраторов: %w", err)
	}
	defer rows.Close()

	var result []*model.Admin
	for rows.Next() {
		a := &model.Admin{}
		if err := rows.Scan(
			&a.ID, &a.Username, &a.Email, &a.Phone, &a.PasswordHash,
			&a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("ошибка сканирования администратора: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("ошибка итерации результатов: %w", err)
	}

	countWhere, countArgs := buildAdminWhere(filters, 1)
	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM admins %s`, countWhere)
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчёта администраторов: %w", err)
	}

	return result, total, nil
}

func (r *adminRepo) Update(ctx context.Context, a *model.Admin) error {
	query := `
		UPDATE admins
		SET username = $2, email = $3, phone = $4, password_hash = $5, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		a.ID, a.Username, a.Email, a.Phone, a.PasswordHash,
	).Scan(&a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: email или телефон уже заняты", ErrConflict)
		}
		return fmt.Errorf("ошибка обновления администратора: %w", err)
	}
	return nil
}

func (r *adminRepo) Delete(ctx context.Context, id string) (*model.Admin, error) {
	query := fmt.Sprintf(`DELETE FROM admins WHERE id = $1 RETURNING %s`, adminColumns)
	a, err := r.scanOne(r.db.QueryRow(ctx, query, id))
	if err != nil {
		// created_by/updated_by таблицы qrs ссылаются на admins.
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: на администратора ссылаются QR-записи", ErrConflict)
		}
		return nil, err
	}
	return a, nil
}

// scanOne сканирует одну строку admins или возвращает ErrNotFound.
func (r *adminRepo) scanOne(row pgx.Row) (*model.Admin, error) {
	a := &model.Admin{}
	err := row.Scan(
		&a.ID, &a.Username, &a.Email, &a.Phone, &a.PasswordHash,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения администратора: %w", err)
	}
	return a, nil
}

// buildAdminWhere строит WHERE-условие и аргументы для фильтрации администраторов.
func buildAdminWhere(filters AdminListFilters, startArg int) (string, []any) {
	var conditions []string
	var args []any
	argNum := startArg

	if filters.Username != nil && *filters.Username != "" {
		conditions = append(conditions, fmt.Sprintf("username ILIKE $%d", argNum))
		args = append(args, "%"+*filters.Username+"%")
		argNum++
	}
	if filters.Email != nil && *filters.Email != "" {
		conditions = append(conditions, fmt.Sprintf("email = $%d", argNum))
		args = append(args, *filters.Email)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}
	return where, args
}
