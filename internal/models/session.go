package models

import "time"

// SessionMarker: сохранённая сессия чата (аналог ключа user в localStorage браузерного клиента).
type SessionMarker struct {
	ChatID    int64
	UserID    int64
	Email     string
	Name      string
	Role      Role
	UpdatedAt time.Time
}
