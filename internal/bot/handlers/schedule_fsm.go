package handlers

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/study-groups-bot/internal/bot/shared/fsmutil"
	"github.com/Spok95/study-groups-bot/internal/controller"
	"github.com/Spok95/study-groups-bot/internal/models"
	"github.com/Spok95/study-groups-bot/internal/tg"
)

const (
	schStepDate = iota
	schStepStart
	schStepEnd
	schStepLocation
	schStepAgenda

	SchSkip   = "sch_skip"
	SchCancel = "sch_cancel"
)

type ScheduleState struct {
	Step      int
	Draft     models.NewSchedule
	MessageID int
}

var scheduleStates = fsmutil.NewStates[*ScheduleState]()

var schedulePrompts = map[int]string{
	schStepDate:     "📅 Date (YYYY-MM-DD):",
	schStepStart:    "🕒 Start time (HH:MM):",
	schStepEnd:      "🕓 End time (HH:MM):",
	schStepLocation: "📍 Location (optional):",
	schStepAgenda:   "📝 Agenda (optional):",
}

func scheduleKeyboard(step int) tgbotapi.InlineKeyboardMarkup {
	if step == schStepLocation || step == schStepAgenda {
		return tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Skip", SchSkip)),
			fsmutil.CancelRow(SchCancel),
		)
	}
	return tgbotapi.NewInlineKeyboardMarkup(fsmutil.CancelRow(SchCancel))
}

// StartScheduleFSM: «Add session» в расписании группы. Преподавателя отсекает контроллер
// (ошибка появляется в расписании группы, запрос не уходит).
func StartScheduleFSM(ctx context.Context, bot tg.Sender, c *controller.Controller, cb *tgbotapi.CallbackQuery) {
	chatID := c.ChatID()
	id, ok := parseID(cb.Data, CbScheduleAdd)
	if !ok {
		answer(bot, cb, "")
		return
	}
	answer(bot, cb, "")
	if c.State().IsInstructor() {
		_, err := c.AddSchedule(ctx, models.NewSchedule{GroupID: id})
		report("add_schedule", chatID, err)
		sendSchedules(bot, c, id)
		return
	}
	state := &ScheduleState{Step: schStepDate, Draft: models.NewSchedule{GroupID: id}}
	scheduleStates.Set(chatID, state)
	state.MessageID = sendInline(bot, chatID, "➕ New study session\n"+schedulePrompts[schStepDate], scheduleKeyboard(schStepDate))
}

func HandleScheduleText(ctx context.Context, bot tg.Sender, c *controller.Controller, msg *tgbotapi.Message) {
	chatID := c.ChatID()
	state, ok := scheduleStates.Get(chatID)
	if !ok {
		return
	}
	text := strings.TrimSpace(msg.Text)
	switch state.Step {
	case schStepDate:
		state.Draft.Date = text
	case schStepStart:
		state.Draft.StartTime = text
	case schStepEnd:
		state.Draft.EndTime = text
	case schStepLocation:
		state.Draft.Location = text
	case schStepAgenda:
		state.Draft.Agenda = text
	}
	nextScheduleStep(ctx, bot, c, state)
}

func HandleScheduleCallback(ctx context.Context, bot tg.Sender, c *controller.Controller, cb *tgbotapi.CallbackQuery) {
	chatID := c.ChatID()
	answer(bot, cb, "")
	state, ok := scheduleStates.Get(chatID)
	if !ok {
		fsmutil.DisableMarkup(bot, chatID, cb.Message.MessageID)
		return
	}
	switch cb.Data {
	case SchCancel:
		fsmutil.DisableMarkup(bot, chatID, state.MessageID)
		scheduleStates.Delete(chatID)
		send(bot, chatID, "🚫 Cancelled.", nil)
	case SchSkip:
		if state.Step == schStepLocation || state.Step == schStepAgenda {
			nextScheduleStep(ctx, bot, c, state)
		}
	}
}

func nextScheduleStep(ctx context.Context, bot tg.Sender, c *controller.Controller, state *ScheduleState) {
	chatID := c.ChatID()
	fsmutil.DisableMarkup(bot, chatID, state.MessageID)
	if state.Step < schStepAgenda {
		state.Step++
		state.MessageID = sendInline(bot, chatID, schedulePrompts[state.Step], scheduleKeyboard(state.Step))
		return
	}

	// всё собрано; проверки и отправка в контроллере, ошибка попадёт в расписание группы
	scheduleStates.Delete(chatID)
	_, err := c.AddSchedule(ctx, state.Draft)
	report("add_schedule", chatID, err)
	if err == nil {
		send(bot, chatID, "✅ Session added.", nil)
	}
	sendSchedules(bot, c, state.Draft.GroupID)
}
