// Пакет qrimg — рендер PNG-изображений QR-кодов.
package qrimg

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// Renderer рендерит QR-код для публичной ссылки на запись.
type Renderer struct {
	baseURL string
	size    int
}

// NewRenderer создаёт renderer. baseURL — базовый URL фронтенда без
// завершающего слеша, size — сторона изображения в пикселях.
func NewRenderer(baseURL string, size int) *Renderer {
	return &Renderer{baseURL: baseURL, size: size}
}

// TargetURL возвращает URL, кодируемый в изображение: {baseURL}/{qrID}.
func (r *Renderer) TargetURL(qrID string) string {
	return fmt.Sprintf("%s/%s", r.baseURL, qrID)
}

// RenderPNG кодирует публичную ссылку записи в PNG-изображение QR-кода.
func (r *Renderer) RenderPNG(qrID string) ([]byte, error) {
	png, err := qrcode.Encode(r.TargetURL(qrID), qrcode.Medium, r.size)
	if err != nil {
		return nil, fmt.Errorf("ошибка рендера QR-кода: %w", err)
	}
	return png, nil
}
