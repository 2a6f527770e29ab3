// Пакет service — бизнес-логика QR Store.
// admins.go — сервис управления администраторами и аутентификации.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"

	"golang.org/x/crypto/bcrypt"

	"github.com/bigkaa/goqrstore/internal/domain/model"
	"github.com/bigkaa/goqrstore/internal/repository"
	"github.com/bigkaa/goqrstore/internal/token"
)

// PageMeta — метаданные пагинации списочных ответов.
type PageMeta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// newPageMeta вычисляет метаданные страницы. totalPages — округление вверх.
func newPageMeta(total, page, limit int) PageMeta {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return PageMeta{Total: total, Page: page, Limit: limit, TotalPages: totalPages}
}

// normalizePage приводит параметры пагинации к допустимым значениям.
// Страницы нумеруются с единицы.
func normalizePage(page, limit int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit, (page - 1) * limit
}

// CreateAdminInput — входные данные создания администратора.
type CreateAdminInput struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// UpdateAdminInput — входные данные частичного обновления администратора.
// nil-поля не изменяются.
type UpdateAdminInput struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
}

// AdminService — сервис управления администраторами.
type AdminService struct {
	repo       repository.AdminRepository
	tokens     *token.Manager
	bcryptCost int
	logger     *slog.Logger
}

// NewAdminService создаёт сервис администраторов.
func NewAdminService(repo repository.AdminRepository, tokens *token.Manager, bcryptCost int, logger *slog.Logger) *AdminService {
	return &AdminService{
		repo:       repo,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		logger:     logger.With(slog.String("component", "admin_service")),
	}
}

// validateAdminInput проверяет поля создания администратора.
func validateAdminInput(in CreateAdminInput) error {
	if n := len(in.Username); n < 6 || n > 20 {
		return fmt.Errorf("%w: username должен быть от 6 до 20 символов", ErrValidation)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return fmt.Errorf("%w: некорректный email", ErrValidation)
	}
	if n := len(in.Phone); n < 6 || n > 11 {
		return fmt.Errorf("%w: phone должен быть от 6 до 11 символов", ErrValidation)
	}
	if len(in.Password) < 6 {
		return fmt.Errorf("%w: password должен быть не короче 6 символов", ErrValidation)
	}
	if in.Password != in.ConfirmPassword {
		return fmt.Errorf("%w: password и confirmPassword не совпадают", ErrValidation)
	}
	return nil
}

// Create создаёт администратора. Пароль хэшируется bcrypt,
// хэш никогда не покидает сервисный слой в открытом виде.
func (s *AdminService) Create(ctx context.Context, in CreateAdminInput) (*model.Admin, error) {
	if err := validateAdminInput(in); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("хэширование пароля: %w", err)
	}

	admin := &model.Admin{
		Username:     in.Username,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: string(hash),
	}

	if err := s.repo.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: email или телефон уже заняты", ErrConflict)
		}
		return nil, fmt.Errorf("создание администратора: %w", err)
	}

	s.logger.Info("Администратор создан",
		slog.String("admin_id", admin.ID),
		slog.String("username", admin.Username),
	)
	return admin, nil
}

// Get возвращает администратора по ID.
func (s *AdminService) Get(ctx context.Context, id string) (*model.Admin, error) {
	admin, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("получение администратора: %w", err)
	}
	return admin, nil
}

// List возвращает страницу администраторов с метаданными пагинации.
func (s *AdminService) List(ctx context.Context, filters repository.AdminListFilters, page, limit int) ([]*model.Admin, PageMeta, error) {
	page, limit, offset := normalizePage(page, limit)

	admins, total, err := s.repo.List(ctx, filters, limit, offset)
	if err != nil {
		return nil, PageMeta{}, fmt.Errorf("список администраторов: %w", err)
	}
	return admins, newPageMeta(total, page, limit), nil
}

// Update частично обновляет администратора. nil-поля не трогаются.
func (s *AdminService) Update(ctx context.Context, id string, in UpdateAdminInput) (*model.Admin, error) {
	admin, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("получение администратора: %w", err)
	}

	if in.Username != nil {
		if n := len(*in.Username); n < 6 || n > 20 {
			return nil, fmt.Errorf("%w: username должен быть от 6 до 20 символов", ErrValidation)
		}
		admin.Username = *in.Username
	}
	if in.Email != nil {
		if _, err := mail.ParseAddress(*in.Email); err != nil {
			return nil, fmt.Errorf("%w: некорректный email", ErrValidation)
		}
		admin.Email = *in.Email
	}
	if in.Phone != nil {
		if n := len(*in.Phone); n < 6 || n > 11 {
			return nil, fmt.Errorf("%w: phone должен быть от 6 до 11 символов", ErrValidation)
		}
		admin.Phone = *in.Phone
	}

	if err := s.repo.Update(ctx, admin); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrNotFound
		case errors.Is(err, repository.ErrConflict):
			return nil, fmt.Errorf("%w: email или телефон уже заняты", ErrConflict)
		}
		return nil, fmt.Errorf("обновление администратора: %w", err)
	}
	return admin, nil
}

// Delete удаляет администратора, возвращая удалённую запись.
func (s *AdminService) Delete(ctx context.Context, id string) (*model.Admin, error) {
	admin, err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: на администратора ссылаются QR-записи", ErrConflict)
		}
		return nil, fmt.Errorf("удаление администратора: %w", err)
	}

	s.logger.Info("Администратор удалён", slog.String("admin_id", id))
	return admin, nil
}

// TokenPair — пара выданных JWT.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// SignIn проверяет учётные данные и выдаёт пару токенов.
// Несуществующий email и неверный пароль неразличимы для клиента.
func (s *AdminService) SignIn(ctx context.Context, email, password string) (*model.Admin, *TokenPair, error) {
	admin, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrUnauthorized
		}
		return nil, nil, fmt.Errorf("поиск администратора: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrUnauthorized
	}

	identity := token.Identity{
		AdminID:  admin.ID,
		Username: admin.Username,
		Email:    admin.Email,
		Phone:    admin.Phone,
	}
	access, refresh, err := s.tokens.IssuePair(identity)
	if err != nil {
		return nil, nil, fmt.Errorf("выдача токенов: %w", err)
	}

	s.logger.Info("Успешный вход", slog.String("admin_id", admin.ID))
	return admin, &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
