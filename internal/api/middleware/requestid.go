// requestid.go — middleware, присваивающий каждому запросу UUID.
// Идентификатор попадает в контекст запроса и в заголовок X-Request-Id
// ответа; логирующий middleware добавляет его к каждой записи.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// ctxKey — приватный тип ключа контекста.
type ctxKey int

// requestIDKey — ключ request id в контексте запроса.
const requestIDKey ctxKey = iota

// RequestID возвращает middleware, генерирующий UUID v4 для каждого
// входящего запроса. Уже присланный клиентом X-Request-Id сохраняется.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-Id")
			if id == "" {
				id = uuid.New().String()
			}

			w.Header().Set("X-Request-Id", id)
			ctx := context.WithValue(r.Context(), requestIDKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDFromContext возвращает request id из контекста
// или пустую строку, если middleware не применялся.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}
