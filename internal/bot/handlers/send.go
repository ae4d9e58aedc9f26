package handlers

import (
	"errors"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Spok95/study-groups-bot/internal/api"
	"github.com/Spok95/study-groups-bot/internal/controller"
	"github.com/Spok95/study-groups-bot/internal/metrics"
	"github.com/Spok95/study-groups-bot/internal/tg"
)

var log = zap.NewNop()

// SetLogger задаёт логгер пакета; по умолчанию логи выключены (тесты).
func SetLogger(l *zap.Logger) {
	if l != nil {
		log = l
	}
}

// send отправляет текст; markup может быть nil. Возвращает id сообщения (0 при ошибке).
func send(bot tg.Sender, chatID int64, text string, markup interface{}) int {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	sent, err := tg.Send(bot, msg)
	if err != nil {
		metrics.HandlerErrors.Inc()
		log.Warn("send failed", zap.Int64("chat_id", chatID), zap.Error(err))
		return 0
	}
	return sent.MessageID
}

func sendInline(bot tg.Sender, chatID int64, text string, mk tgbotapi.InlineKeyboardMarkup) int {
	if len(mk.InlineKeyboard) == 0 {
		return send(bot, chatID, text, nil)
	}
	return send(bot, chatID, text, mk)
}

// Ответить на нажатие кнопки (убирает крутилку у пользователя)
func answer(bot tg.Sender, cb *tgbotapi.CallbackQuery, text string) {
	if _, err := tg.Request(bot, tgbotapi.NewCallback(cb.ID, text)); err != nil {
		metrics.HandlerErrors.Inc()
	}
}

// report: учёт результата операции контроллера. Отказы (валидация, 4xx, поле error)
// пользователь уже видит в слоте сообщения; сюда попадают только сбои.
func report(op string, chatID int64, err error) {
	if err == nil ||
		errors.Is(err, controller.ErrValidation) ||
		errors.Is(err, controller.ErrStale) ||
		errors.Is(err, controller.ErrBusy) ||
		errors.Is(err, controller.ErrNotLoggedIn) ||
		api.IsRejected(err) {
		return
	}
	metrics.HandlerErrors.Inc()
	log.Warn("operation failed", zap.String("op", op), zap.Int64("chat_id", chatID), zap.Error(err))
}

// parseID: хвост callback-данных вида "grp:42".
func parseID(data, prefix string) (int64, bool) {
	if !strings.HasPrefix(data, prefix) {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(data, prefix), 10, 64)
	return id, err == nil
}
