package app

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/study-groups-bot/internal/bot/handlers"
	"github.com/Spok95/study-groups-bot/internal/controller"
	"github.com/Spok95/study-groups-bot/internal/logging"
	"github.com/Spok95/study-groups-bot/internal/metrics"
	"github.com/Spok95/study-groups-bot/internal/session"
	"github.com/Spok95/study-groups-bot/internal/tg"
)

type Factory func(chatID int64) *controller.Controller

// NewControllerFactory: контроллер чата со своим Store; истёкшая подсказка удаляется из чата.
func NewControllerFactory(bot tg.Sender, a controller.API, markers controller.Markers, warningTTL time.Duration, log *zap.Logger) Factory {
	log = logging.OrNop(log)
	return func(chatID int64) *controller.Controller {
		store := session.NewStore(
			session.WithWarningTTL(warningTTL),
			session.WithLogger(log.Named("session").With(zap.Int64("chat_id", chatID))),
		)
		store.OnExpire(func(n session.Notice) { handlers.ExpireNotice(bot, chatID, n) })
		return controller.New(chatID, a, markers, store, log.Named("controller"))
	}
}

type regEntry struct {
	ctl      *controller.Controller
	lastSeen time.Time
}

// Registry: контроллеры чатов в памяти. Создаются лениво, выгружаются по простою.
type Registry struct {
	mu      sync.Mutex
	byChat  map[int64]*regEntry
	factory Factory
	onEvict func(chatID int64)
	now     func() time.Time
}

func NewRegistry(factory Factory, onEvict func(chatID int64)) *Registry {
	return &Registry{
		byChat:  make(map[int64]*regEntry),
		factory: factory,
		onEvict: onEvict,
		now:     time.Now,
	}
}

// Get возвращает контроллер чата; created=true, если он только что создан.
func (r *Registry) Get(chatID int64) (ctl *controller.Controller, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byChat[chatID]
	if !ok {
		e = &regEntry{ctl: r.factory(chatID)}
		r.byChat[chatID] = e
		metrics.ActiveSessions.Set(float64(len(r.byChat)))
	}
	e.lastSeen = r.now()
	return e.ctl, !ok
}

// EvictIdle выгружает контроллеры, к которым не обращались с before. Возвращает число выгруженных.
func (r *Registry) EvictIdle(before time.Time) int {
	r.mu.Lock()
	var evicted []int64
	for id, e := range r.byChat {
		if e.lastSeen.Before(before) {
			delete(r.byChat, id)
			evicted = append(evicted, id)
		}
	}
	metrics.ActiveSessions.Set(float64(len(r.byChat)))
	hook := r.onEvict
	r.mu.Unlock()

	if hook != nil {
		for _, id := range evicted {
			hook(id)
		}
	}
	return len(evicted)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byChat)
}
