package handlers

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/study-groups-bot/internal/bot/menu"
	"github.com/Spok95/study-groups-bot/internal/bot/shared/fsmutil"
	"github.com/Spok95/study-groups-bot/internal/controller"
	"github.com/Spok95/study-groups-bot/internal/metrics"
	"github.com/Spok95/study-groups-bot/internal/session"
	"github.com/Spok95/study-groups-bot/internal/tg"
	"github.com/Spok95/study-groups-bot/internal/view"
)

const (
	ProfField  = "prof_f:"
	ProfSave   = "prof_save"
	ProfBack   = "prof_back"
	ProfCancel = "prof_cancel"
)

type ProfileState struct {
	Field     session.ProfileField // поле, для которого ждём текст; "": ждём кнопку
	MessageID int
}

var profileStates = fsmutil.NewStates[*ProfileState]()

var fieldPrompts = map[session.ProfileField]string{
	session.FieldName:         "Enter your name:",
	session.FieldEmail:        "Enter your email:",
	session.FieldSkills:       "Enter your skills, comma-separated (e.g., python, javascript, java):",
	session.FieldInterests:    "Enter your interests, comma-separated:",
	session.FieldAvailability: "Enter your availability, comma-separated (e.g., monday evening, weekends):",
}

func profileKeyboard() tgbotapi.InlineKeyboardMarkup {
	btn := func(label string, f session.ProfileField) tgbotapi.InlineKeyboardButton {
		return tgbotapi.NewInlineKeyboardButtonData(label, ProfField+string(f))
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(btn("Name", session.FieldName), btn("Email", session.FieldEmail)),
		tgbotapi.NewInlineKeyboardRow(btn("Skills", session.FieldSkills), btn("Interests", session.FieldInterests)),
		tgbotapi.NewInlineKeyboardRow(btn("Availability", session.FieldAvailability)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("💾 Save profile", ProfSave)),
		fsmutil.CancelRow(ProfCancel),
	)
}

func StartProfileFSM(bot tg.Sender, c *controller.Controller) {
	chatID := c.ChatID()
	st := c.State()
	if !st.IsStudent() {
		send(bot, chatID, "Only students have a profile.", nil)
		return
	}
	state := &ProfileState{}
	profileStates.Set(chatID, state)
	profilePreview(bot, c, state)
}

// profilePreview: текущий черновик анкеты с кнопками полей.
func profilePreview(bot tg.Sender, c *controller.Controller, state *ProfileState) {
	st := c.State()
	if st.Profile == nil {
		return
	}
	profReplace(bot, c.ChatID(), state, "✏️ Edit profile\n\n"+view.Profile(*st.Profile)+"\n\nChoose a field to edit:", profileKeyboard())
}

func HandleProfileText(bot tg.Sender, c *controller.Controller, msg *tgbotapi.Message) {
	chatID := c.ChatID()
	state, ok := profileStates.Get(chatID)
	if !ok || state.Field == "" {
		return
	}
	if err := c.EditProfile(state.Field, msg.Text); err != nil {
		report("edit_profile", chatID, err)
	}
	state.Field = ""
	profilePreview(bot, c, state)
}

func HandleProfileCallback(ctx context.Context, bot tg.Sender, c *controller.Controller, cb *tgbotapi.CallbackQuery) {
	chatID := c.ChatID()
	state, ok := profileStates.Get(chatID)
	if !ok {
		answer(bot, cb, "")
		fsmutil.DisableMarkup(bot, chatID, cb.Message.MessageID)
		return
	}
	data := cb.Data

	switch {
	case data == ProfCancel:
		answer(bot, cb, "")
		profClearMarkup(bot, chatID, state)
		profileStates.Delete(chatID)
		send(bot, chatID, "🚫 Cancelled.", menu.GetRoleMenu(c.State().Role()))

	case data == ProfBack:
		answer(bot, cb, "")
		state.Field = ""
		profilePreview(bot, c, state)

	case data == ProfSave:
		if !fsmutil.SetPending(chatID, "save_profile") {
			answer(bot, cb, "⏳ Saving...")
			return
		}
		defer fsmutil.ClearPending(chatID, "save_profile")
		answer(bot, cb, "")
		profClearMarkup(bot, chatID, state)

		err := c.SaveProfile(ctx)
		report("save_profile", chatID, err)
		if errors.Is(err, controller.ErrValidation) {
			showNotice(bot, c)
			state.MessageID = 0
			profilePreview(bot, c, state)
			return
		}
		profileStates.Delete(chatID)
		if err == nil {
			send(bot, chatID, "✅ Profile saved.", nil)
		}
		ShowHome(bot, c)

	case strings.HasPrefix(data, ProfField):
		answer(bot, cb, "")
		f := session.ProfileField(strings.TrimPrefix(data, ProfField))
		prompt, ok := fieldPrompts[f]
		if !ok {
			return
		}
		state.Field = f
		profReplace(bot, chatID, state, prompt, tgbotapi.NewInlineKeyboardMarkup(fsmutil.BackCancelRow(ProfBack, ProfCancel)))

	default:
		answer(bot, cb, "")
	}
}

// Отправить новое сообщение с клавиатурой и удалить старое, чтобы оно было ниже в чате
func profReplace(bot tg.Sender, chatID int64, state *ProfileState, text string, mk tgbotapi.InlineKeyboardMarkup) {
	if state.MessageID != 0 {
		if err := tg.Delete(bot, chatID, state.MessageID); err != nil {
			metrics.HandlerErrors.Inc()
		}
	}
	state.MessageID = sendInline(bot, chatID, text, mk)
}

func profClearMarkup(bot tg.Sender, chatID int64, state *ProfileState) {
	fsmutil.DisableMarkup(bot, chatID, state.MessageID)
}
