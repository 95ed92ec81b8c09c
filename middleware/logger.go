package middleware

import (
	"log"
	"net/http"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	tele "gopkg.in/telebot.v4"
)

// RequestIDHeader заголовок с идентификатором запроса
const RequestIDHeader = "X-Request-ID"

// Logger возвращает middleware, которое логирует входящие обновления Telegram.
// Если передан логгер, используется он, иначе log.Default().
func Logger(logger ...*log.Logger) tele.MiddlewareFunc {
	l := pickLogger(logger)
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			var chatID int64
			if chat := c.Chat(); chat != nil {
				chatID = chat.ID
			}

			switch {
			case c.Callback() != nil:
				l.Printf("Telegram: chat %d callback %q", chatID, c.Callback().Data)
			case c.Message() != nil:
				l.Printf("Telegram: chat %d message %q", chatID, c.Message().Text)
			default:
				l.Printf("Telegram: chat %d update %d", chatID, c.Update().ID)
			}
			return next(c)
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RequestLogger присваивает запросу идентификатор и логирует метод, путь, статус и длительность
func RequestLogger(logger ...*log.Logger) func(http.Handler) http.Handler {
	l := pickLogger(logger)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				id, err := gonanoid.New()
				if err != nil {
					l.Printf("Failed to generate request id: %v", err)
				}
				requestID = id
			}
			w.Header().Set(RequestIDHeader, requestID)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			started := time.Now()
			next.ServeHTTP(rec, r)

			l.Printf("HTTP [%s] %s %s -> %d (%s)", requestID, r.Method, r.URL.RequestURI(), rec.status, time.Since(started))
		})
	}
}

func pickLogger(logger []*log.Logger) *log.Logger {
	if len(logger) > 0 && logger[0] != nil {
		return logger[0]
	}
	return log.Default()
}
