package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Spok95/study-groups-bot/internal/bot/handlers"
	"github.com/Spok95/study-groups-bot/internal/bot/menu"
	"github.com/Spok95/study-groups-bot/internal/bot/shared/fsmutil"
	"github.com/Spok95/study-groups-bot/internal/controller"
	"github.com/Spok95/study-groups-bot/internal/ctxutil"
	"github.com/Spok95/study-groups-bot/internal/logging"
	"github.com/Spok95/study-groups-bot/internal/metrics"
	"github.com/Spok95/study-groups-bot/internal/observability"
	"github.com/Spok95/study-groups-bot/internal/tg"
)

// InstructorGate: разрешён ли пользователю Telegram вход преподавателя (config.IsInstructor).
type InstructorGate func(telegramID int64) bool

type Dispatcher struct {
	bot        tg.Sender
	reg        *Registry
	limiter    *ChatLimiter
	instructor InstructorGate
	log        *zap.Logger
	now        func() time.Time
	wg         sync.WaitGroup
}

func NewDispatcher(bot tg.Sender, reg *Registry, gate InstructorGate, log *zap.Logger) *Dispatcher {
	if gate == nil {
		gate = func(int64) bool { return false }
	}
	return &Dispatcher{
		bot:        bot,
		reg:        reg,
		limiter:    NewChatLimiter(),
		instructor: gate,
		log:        logging.OrNop(log),
		now:        time.Now,
	}
}

// WithLocation: часовой пояс для дат в выгрузках (TZ из конфига).
func (d *Dispatcher) WithLocation(loc *time.Location) *Dispatcher {
	if loc != nil {
		d.now = func() time.Time { return time.Now().In(loc) }
	}
	return d
}

// Run: цикл обновлений. Каждое в своей горутине, внутри одного чата строго по очереди.
// Возвращается после отмены ctx (или закрытия канала) и завершения уже начатых обработчиков.
func (d *Dispatcher) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	defer d.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			d.wg.Add(1)
			go func() {
				defer d.wg.Done()
				d.Handle(ctx, upd)
			}()
		}
	}
}

func chatOf(upd tgbotapi.Update) int64 {
	switch {
	case upd.CallbackQuery != nil && upd.CallbackQuery.Message != nil && upd.CallbackQuery.Message.Chat != nil:
		return upd.CallbackQuery.Message.Chat.ID
	case upd.Message != nil && upd.Message.Chat != nil:
		return upd.Message.Chat.ID
	}
	return 0
}

// Handle обрабатывает одно обновление под блокировкой чата.
func (d *Dispatcher) Handle(ctx context.Context, upd tgbotapi.Update) {
	chatID := chatOf(upd)
	if chatID == 0 {
		return
	}
	metrics.BotUpdates.Inc()

	unlock := d.limiter.lock(chatID)
	defer unlock()
	defer func() {
		if r := recover(); r != nil {
			metrics.HandlerErrors.Inc()
			err := fmt.Errorf("panic in update handler: %v", r)
			observability.CaptureErrTags(err, map[string]string{"chat_id": fmt.Sprint(chatID)})
			d.log.Error("handler panic", zap.Int64("chat_id", chatID), zap.Any("panic", r))
		}
	}()

	ctx, cancel := ctxutil.WithTimeout(ctx, ctxutil.DefaultUpdateTimeout)
	defer cancel()
	ctx = ctxutil.WithChatID(ctx, chatID)

	c, created := d.reg.Get(chatID)
	restored := false
	if created && !isStart(upd) {
		// контроллер только что создан (рестарт процесса или выгрузка по простою): поднимаем сессию.
		// Restore повторяет вход, а вход уже загружает группы.
		ok, err := c.Restore(ctx)
		if err != nil {
			d.log.Warn("restore session", zap.Int64("chat_id", chatID), zap.Error(err))
		}
		restored = ok && c.State().LoggedIn()
	}

	switch {
	case upd.CallbackQuery != nil:
		d.handleCallback(ctx, c, upd.CallbackQuery)
	case upd.Message != nil:
		d.handleMessage(ctx, c, upd.Message, restored)
	}
}

func isStart(upd tgbotapi.Update) bool {
	return upd.Message != nil && strings.TrimSpace(upd.Message.Text) == "/start"
}

func (d *Dispatcher) handleMessage(ctx context.Context, c *controller.Controller, msg *tgbotapi.Message, restored bool) {
	text := strings.TrimSpace(msg.Text)
	bot := d.bot

	if text == "/start" {
		handlers.HandleStart(ctx, bot, c, msg)
		return
	}
	if fsmutil.IsCancelText(text) {
		handlers.HandleCancelText(bot, c)
		return
	}
	if handlers.HandleFSMText(ctx, bot, c, msg) {
		return
	}

	switch text {
	case menu.BtnLogin, "/login":
		handlers.StartAuthFSM(bot, c, false)
	case menu.BtnRegister, "/register":
		handlers.StartAuthFSM(bot, c, true)
	case menu.BtnLoginInstructor, "/instructor":
		var from int64
		if msg.From != nil {
			from = msg.From.ID
		}
		handlers.HandleInstructorLogin(ctx, bot, c, d.instructor(from))
	case menu.BtnMyProfile, "/profile":
		handlers.ShowHome(bot, c)
	case menu.BtnDashboard, "/dashboard":
		handlers.HandleDashboard(bot, c)
	case menu.BtnEditProfile, "/edit":
		handlers.StartProfileFSM(bot, c)
	case menu.BtnMyGroups, "/groups":
		if restored {
			handlers.ShowMyGroups(bot, c)
			return
		}
		handlers.HandleMyGroups(ctx, bot, c)
	case menu.BtnRefresh, "/refresh":
		handlers.HandleRefresh(ctx, bot, c)
	case menu.BtnExport, "/export":
		handlers.HandleExport(bot, c, d.now())
	case menu.BtnLogout, "/logout":
		handlers.HandleLogout(ctx, bot, c)
	default:
		m := tgbotapi.NewMessage(c.ChatID(), "⚠️ Unknown command. Use /start")
		m.ReplyMarkup = menu.GetRoleMenu(c.State().Role())
		if _, err := tg.Send(bot, m); err != nil {
			metrics.HandlerErrors.Inc()
		}
	}
}

func (d *Dispatcher) handleCallback(ctx context.Context, c *controller.Controller, cb *tgbotapi.CallbackQuery) {
	data := cb.Data
	bot := d.bot
	d.log.Debug("callback", zap.Int64("chat_id", c.ChatID()), zap.String("data", data))

	switch {
	case data == handlers.AuthCancel:
		handlers.HandleAuthCallback(bot, c, cb)
	case strings.HasPrefix(data, "prof_"):
		handlers.HandleProfileCallback(ctx, bot, c, cb)
	case strings.HasPrefix(data, handlers.CbGroup):
		handlers.HandleGroupCallback(bot, c, cb)
	case strings.HasPrefix(data, handlers.CbScheduleAdd):
		handlers.StartScheduleFSM(ctx, bot, c, cb)
	case strings.HasPrefix(data, handlers.CbSchedules):
		handlers.HandleSchedulesCallback(ctx, bot, c, cb)
	case strings.HasPrefix(data, "sch_"):
		handlers.HandleScheduleCallback(ctx, bot, c, cb)
	case strings.HasPrefix(data, handlers.CbFeedback):
		handlers.StartFeedbackFSM(bot, c, cb)
	case strings.HasPrefix(data, "fb_"):
		handlers.HandleFeedbackCallback(ctx, bot, c, cb)
	default:
		// Всегда отвечаем на колбэк, чтобы Telegram "разморозил" UI
		if _, err := tg.Request(bot, tgbotapi.NewCallback(cb.ID, "")); err != nil {
			metrics.HandlerErrors.Inc()
		}
	}
}
