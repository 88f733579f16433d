package client

import (
	"errors"
	"fmt"
)

// ErrUnavailable транспортная ошибка: таймаут, обрыв соединения, невалидное тело ответа.
// Для вызывающего кода это временный сбой, сам клиент ретраев не делает.
var ErrUnavailable = errors.New("vendor unavailable")

// APIError бизнес-отказ вендора: ответ доставлен, но code отличен от успешного
// (исчерпан пул номеров и т.п.).
type APIError struct {
	Code int
	Msg  string
}

func NewAPIError(code int, msg string) *APIError {
	return &APIError{Code: code, Msg: msg}
}

func (e *APIError) Error() string {
	return fmt.Sprintf("vendor rejected request with code %d: %s", e.Code, e.Msg)
}
