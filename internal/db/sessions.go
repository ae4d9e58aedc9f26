package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Spok95/study-groups-bot/internal/ctxutil"
	"github.com/Spok95/study-groups-bot/internal/models"
)

// SaveSession: upsert маркера сессии чата; updated_at обновляется при каждом входе.
func SaveSession(ctx context.Context, database *sql.DB, m models.SessionMarker) error {
	_, err := database.ExecContext(ctx, `
		INSERT INTO sessions (chat_id, user_id, email, name, role, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (chat_id) DO UPDATE SET
			user_id    = EXCLUDED.user_id,
			email      = EXCLUDED.email,
			name       = EXCLUDED.name,
			role       = EXCLUDED.role,
			updated_at = now()
	`, m.ChatID, m.UserID, m.Email, m.Name, string(m.Role))
	return err
}

// GetSession: nil, nil если маркера нет.
func GetSession(ctx context.Context, database *sql.DB, chatID int64) (*models.SessionMarker, error) {
	var (
		m    models.SessionMarker
		role string
	)
	err := database.QueryRowContext(ctx, `
		SELECT chat_id, user_id, email, name, role, updated_at
		FROM sessions WHERE chat_id = $1
	`, chatID).Scan(&m.ChatID, &m.UserID, &m.Email, &m.Name, &role, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m.Role = models.Role(role)
	return &m, nil
}

func DeleteSession(ctx context.Context, database *sql.DB, chatID int64) error {
	_, err := database.ExecContext(ctx, `DELETE FROM sessions WHERE chat_id = $1`, chatID)
	return err
}

// PruneSessions удаляет маркеры, не обновлявшиеся с before. Возвращает число удалённых.
func PruneSessions(ctx context.Context, database *sql.DB, before time.Time) (int64, error) {
	res, err := database.ExecContext(ctx, `DELETE FROM sessions WHERE updated_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SessionRepo: те же функции с таймаутом БД, в форме, которую ждёт контроллер.
type SessionRepo struct {
	DB *sql.DB
}

func (r SessionRepo) SaveSession(ctx context.Context, m models.SessionMarker) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return SaveSession(ctx, r.DB, m)
}

func (r SessionRepo) GetSession(ctx context.Context, chatID int64) (*models.SessionMarker, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return GetSession(ctx, r.DB, chatID)
}

func (r SessionRepo) DeleteSession(ctx context.Context, chatID int64) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return DeleteSession(ctx, r.DB, chatID)
}

func (r SessionRepo) PruneSessions(ctx context.Context, before time.Time) (int64, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return PruneSessions(ctx, r.DB, before)
}
