package controller

import (
	"errors"
	"fmt"
)

var (
	ErrValidation  = errors.New("validation failed")
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrBusy: «обновить оценку» уже выполняется; повторное нажатие схлопывается.
	ErrBusy = errors.New("refresh already in progress")
	// ErrStale: ответ пришёл, но сессия уже ушла дальше (новый вход, выход).
	ErrStale = errors.New("superseded by a newer request")
)

// ValidationError: отказ до обращения к серверу. Msg показывается пользователю как есть.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }
func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(msg string) error { return &ValidationError{Msg: msg} }

// StageError: какой шаг конвейера упал (reinitialize → refetch).
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("stage %s: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }
