// errors_test.go — unit-тесты формата конверта ошибок.
package errors

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestWriteError проверяет структуру конверта ошибки.
func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	NotFound(rec, "QR-запись не найдена")

	if rec.Code != http.StatusNotFound {
		t.Errorf("статус = %d, ожидался 404", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var body struct {
		StatusCode int    `json:"statusCode"`
		Message    string `json:"message"`
		Error      struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Unmarshal вернул ошибку: %v", err)
	}

	if body.StatusCode != 404 {
		t.Errorf("statusCode = %d", body.StatusCode)
	}
	if body.Error.Code != CodeNotFound {
		t.Errorf("error.code = %q, ожидался %q", body.Error.Code, CodeNotFound)
	}
	if body.Error.Message != "QR-запись не найдена" {
		t.Errorf("error.message = %q", body.Error.Message)
	}
}

// TestConstructorsStatusCodes проверяет статус-коды конструкторов.
func TestConstructorsStatusCodes(t *testing.T) {
	tests := []struct {
		name     string
		fn       func(http.ResponseWriter, string)
		expected int
	}{
		{"ValidationError", ValidationError, http.StatusBadRequest},
		{"QRDisabled", QRDisabled, http.StatusBadRequest},
		{"Unauthorized", Unauthorized, http.StatusUnauthorized},
		{"Forbidden", Forbidden, http.StatusForbidden},
		{"NotFound", NotFound, http.StatusNotFound},
		{"Conflict", Conflict, http.StatusConflict},
		{"StoreUnavailable", StoreUnavailable, http.StatusBadGateway},
		{"InternalError", InternalError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.fn(rec, "сообщение")
			if rec.Code != tt.expected {
				t.Errorf("статус = %d, ожидался %d", rec.Code, tt.expected)
			}
		})
	}
}
