// Пакет model — доменные модели QR Store.
package model

import "time"

// Admin — администратор системы.
// PasswordHash никогда не сериализуется в ответы API.
type Admin struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
