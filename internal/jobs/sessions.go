package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/study-groups-bot/internal/logging"
)

// Pruner: хранилище маркеров сессий (db.SessionRepo).
type Pruner interface {
	PruneSessions(ctx context.Context, before time.Time) (int64, error)
}

// Evictor: реестр контроллеров чатов (app.Registry).
type Evictor interface {
	EvictIdle(before time.Time) int
}

// SessionGC удаляет маркеры сессий старше ttl.
func SessionGC(p Pruner, ttl time.Duration, now func() time.Time, log *zap.Logger) Job {
	log = logging.OrNop(log)
	if now == nil {
		now = time.Now
	}
	return func(ctx context.Context) error {
		n, err := p.PruneSessions(ctx, now().Add(-ttl))
		if err != nil {
			return err
		}
		if n > 0 {
			log.Info("session markers pruned", zap.Int64("count", n))
		}
		return nil
	}
}

// RegistryEvict выгружает из памяти контроллеры чатов, молчащих дольше idle.
// Маркер в БД остаётся: следующее сообщение поднимет сессию заново.
func RegistryEvict(e Evictor, idle time.Duration, now func() time.Time) Job {
	if now == nil {
		now = time.Now
	}
	return func(context.Context) error {
		e.EvictIdle(now().Add(-idle))
		return nil
	}
}
