package api

import (
	"errors"
	"fmt"
)

// HTTPError: ответ не 2xx. В Message поле "error" из тела, если сервер его прислал.
type HTTPError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP error! status: %d (%s)", e.Status, e.Message)
	}
	return fmt.Sprintf("HTTP error! status: %d", e.Status)
}

// Server: 5xx, такие ошибки уходят в Sentry.
func (e *HTTPError) Server() bool { return e.Status >= 500 }

// PayloadError: 2xx, но в теле есть поле "error". Для пользователя это такой же отказ.
type PayloadError struct {
	Path    string
	Message string
}

func (e *PayloadError) Error() string { return e.Message }

// Message: текст, который можно показать пользователю как есть.
func Message(err error) string {
	var pe *PayloadError
	if errors.As(err, &pe) {
		return pe.Message
	}
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Error()
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// IsRejected: сервер ответил, но отказал (не 2xx или поле error). Сетевые сбои сюда не входят.
func IsRejected(err error) bool {
	var pe *PayloadError
	var he *HTTPError
	return errors.As(err, &pe) || errors.As(err, &he)
}
