// Пакет handlers — HTTP-обработчики QR Store.
// respond.go — запись успешных ответов в едином формате конверта:
// {"statusCode": ..., "message": "...", "data": ..., "meta": ...}.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/bigkaa/goqrstore/internal/service"
)

// successBody — структура тела успешного ответа.
type successBody struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Data       any    `json:"data"`
	Meta       any    `json:"meta,omitempty"`
}

// writeSuccess записывает успешный ответ в формате конверта.
func writeSuccess(w http.ResponseWriter, statusCode int, message string, data any) {
	writeSuccessMeta(w, statusCode, message, data, nil)
}

// writeSuccessMeta записывает успешный ответ с метаданными пагинации.
func writeSuccessMeta(w http.ResponseWriter, statusCode int, message string, data any, meta any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(successBody{
		StatusCode: statusCode,
		Message:    message,
		Data:       data,
		Meta:       meta,
	})
}

// writeList записывает списочный ответ с метаданными пагинации.
func writeList(w http.ResponseWriter, message string, data any, meta service.PageMeta) {
	writeSuccessMeta(w, http.StatusOK, message, data, meta)
}
