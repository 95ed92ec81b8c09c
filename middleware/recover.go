package middleware

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	httpError "github.com/IT-Nick/mathquiz/pkg/http"
	tele "gopkg.in/telebot.v4"
)

// Recover возвращает middleware-функцию, которая перехватывает панику в обработчике Telegram
// и вызывает заданный обработчик ошибки. По умолчанию паника только логируется.
func Recover(onError ...func(error, tele.Context)) tele.MiddlewareFunc {
	handleError := func(err error, c tele.Context) {
		log.Printf("Recovered from panic: %v", err)
	}
	if len(onError) > 0 && onError[0] != nil {
		handleError = onError[0]
	}

	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = panicError(r)
					handleError(err, c)
				}
			}()
			return next(c)
		}
	}
}

// RecoverHTTP превращает панику в HTTP обработчике в ответ 500
func RecoverHTTP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("Recovered from panic in %s %s: %v", r.Method, r.URL.Path, panicError(rec))
				httpError.ErrorResponse(w, http.StatusInternalServerError, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func panicError(r interface{}) error {
	switch x := r.(type) {
	case error:
		return x
	case string:
		return errors.New(x)
	default:
		return fmt.Errorf("unknown panic: %v", x)
	}
}
