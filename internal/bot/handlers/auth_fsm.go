package handlers

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/study-groups-bot/internal/bot/menu"
	"github.com/Spok95/study-groups-bot/internal/bot/shared/fsmutil"
	"github.com/Spok95/study-groups-bot/internal/controller"
	"github.com/Spok95/study-groups-bot/internal/tg"
)

const (
	authStepEmail = iota
	authStepName

	AuthCancel = "auth_cancel"
)

type AuthState struct {
	Step        int
	Registering bool
	Email       string
	MessageID   int
}

var authStates = fsmutil.NewStates[*AuthState]()

func authKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(fsmutil.CancelRow(AuthCancel))
}

// StartAuthFSM: вход (email) или регистрация (email → имя).
func StartAuthFSM(bot tg.Sender, c *controller.Controller, registering bool) {
	chatID := c.ChatID()
	if c.State().LoggedIn() {
		send(bot, chatID, "You are already logged in.", nil)
		ShowHome(bot, c)
		return
	}
	state := &AuthState{Step: authStepEmail, Registering: registering}
	authStates.Set(chatID, state)
	c.SetAuthForm("", "", registering)

	title := "🔑 Login"
	if registering {
		title = "📝 Register"
	}
	state.MessageID = sendInline(bot, chatID, title+"\nEnter your email:", authKeyboard())
}

func HandleAuthText(ctx context.Context, bot tg.Sender, c *controller.Controller, msg *tgbotapi.Message) {
	chatID := c.ChatID()
	state, ok := authStates.Get(chatID)
	if !ok {
		return
	}
	text := strings.TrimSpace(msg.Text)

	switch state.Step {
	case authStepEmail:
		state.Email = text
		if state.Registering {
			c.SetAuthForm(text, "", true)
			fsmutil.DisableMarkup(bot, chatID, state.MessageID)
			state.Step = authStepName
			state.MessageID = sendInline(bot, chatID, "Enter your name:", authKeyboard())
			return
		}
		finishAuth(ctx, bot, c, state, "")
	case authStepName:
		finishAuth(ctx, bot, c, state, text)
	}
}

func finishAuth(ctx context.Context, bot tg.Sender, c *controller.Controller, state *AuthState, name string) {
	chatID := c.ChatID()
	var err error
	if state.Registering {
		err = c.Register(ctx, state.Email, name)
	} else {
		err = c.Login(ctx, state.Email)
	}
	report("auth", chatID, err)

	if !c.State().LoggedIn() {
		showNotice(bot, c)
		fsmutil.DisableMarkup(bot, chatID, state.MessageID)
		// пустое имя: спрашиваем только имя, остальное заново с email
		if errors.Is(err, controller.ErrValidation) && state.Step == authStepName && strings.TrimSpace(name) == "" {
			state.MessageID = sendInline(bot, chatID, "Enter your name:", authKeyboard())
			return
		}
		state.Step = authStepEmail
		state.Email = ""
		state.MessageID = sendInline(bot, chatID, "Enter your email again or cancel:", authKeyboard())
		return
	}

	fsmutil.DisableMarkup(bot, chatID, state.MessageID)
	authStates.Delete(chatID)
	ShowHome(bot, c)
}

func HandleAuthCallback(bot tg.Sender, c *controller.Controller, cb *tgbotapi.CallbackQuery) {
	chatID := c.ChatID()
	answer(bot, cb, "")
	if cb.Data != AuthCancel {
		return
	}
	authStates.Delete(chatID)
	fsmutil.DisableMarkup(bot, chatID, cb.Message.MessageID)
	send(bot, chatID, "🚫 Cancelled.", menu.GetRoleMenu(c.State().Role()))
}

// HandleInstructorLogin: «Login as Instructor». Доступ решает вызывающий (INSTRUCTOR_IDS).
func HandleInstructorLogin(ctx context.Context, bot tg.Sender, c *controller.Controller, allowed bool) {
	chatID := c.ChatID()
	if !allowed {
		send(bot, chatID, "⛔ Instructor access is not enabled for this account.", nil)
		return
	}
	authStates.Delete(chatID)
	report("login_instructor", chatID, c.LoginInstructor(ctx))
	ShowHome(bot, c)
}
