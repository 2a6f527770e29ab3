// Пакет token — выпуск и проверка подписанных токенов идентичности
// (access + refresh) на RS256 с настроенной парой RSA-ключей.
package token

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Ошибки проверки токенов.
var (
	// ErrExpired — срок действия токена истёк (подпись при этом корректна).
	ErrExpired = errors.New("срок действия токена истёк")
	// ErrInvalid — токен не прошёл проверку (подпись, формат, алгоритм).
	ErrInvalid = errors.New("невалидный токен")
)

// Identity — идентичность администратора, переносимая в claims.
type Identity struct {
	AdminID  string `json:"adminId"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// Claims — полные claims токена: идентичность + registered claims.
type Claims struct {
	jwt.RegisteredClaims
	Identity
}

// Manager выпускает и проверяет токены.
type Manager struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewManager загружает PEM-ключи с диска и создаёт Manager.
func NewManager(privateKeyPath, publicKeyPath string, accessTTL, refreshTTL time.Duration) (*Manager, error) {
	privPEM, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("чтение приватного ключа %s: %w", privateKeyPath, err)
	}
	priv, err := jwt.ParseRSAPrivateKeyFromPEM(privPEM)
	if err != nil {
		return nil, fmt.Errorf("разбор приватного ключа: %w", err)
	}

	pubPEM, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("чтение публичного ключа %s: %w", publicKeyPath, err)
	}
	pub, err := jwt.ParseRSAPublicKeyFromPEM(pubPEM)
	if err != nil {
		return nil, fmt.Errorf("разбор публичного ключа: %w", err)
	}

	return NewManagerFromKeys(priv, pub, accessTTL, refreshTTL), nil
}

// NewManagerFromKeys создаёт Manager из готовой пары ключей.
func NewManagerFromKeys(priv *rsa.PrivateKey, pub *rsa.PublicKey, accessTTL, refreshTTL time.Duration) *Manager {
	return &Manager{
		privateKey: priv,
		publicKey:  pub,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// IssueAccess выпускает access-токен для идентичности.
func (m *Manager) IssueAccess(id Identity) (string, error) {
	return m.sign(id, m.accessTTL)
}

// IssueRefresh выпускает refresh-токен для идентичности.
func (m *Manager) IssueRefresh(id Identity) (string, error) {
	return m.sign(id, m.refreshTTL)
}

// IssuePair выпускает пару access + refresh для идентичности.
func (m *Manager) IssuePair(id Identity) (access, refresh string, err error) {
	access, err = m.IssueAccess(id)
	if err != nil {
		return "", "", err
	}
	refresh, err = m.IssueRefresh(id)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// sign подписывает claims с указанным TTL.
func (m *Manager) sign(id Identity, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.AdminID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Identity: id,
	}

	t := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := t.SignedString(m.privateKey)
	if err != nil {
		return "", fmt.Errorf("ошибка подписи токена: %w", err)
	}
	return signed, nil
}

// Verify проверяет подпись и срок действия токена.
// Возвращает ErrExpired для корректно подписанного, но истёкшего токена;
// ErrInvalid — для всех остальных дефектов.
func (m *Manager) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return m.publicKey, nil },
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return claims, nil
}
