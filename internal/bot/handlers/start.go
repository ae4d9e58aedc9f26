package handlers

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/study-groups-bot/internal/bot/menu"
	"github.com/Spok95/study-groups-bot/internal/controller"
	"github.com/Spok95/study-groups-bot/internal/tg"
	"github.com/Spok95/study-groups-bot/internal/view"
)

const welcomeText = "👋 Study Groups: find a study group that matches your skills.\nLogin or register to continue."

// HandleStart (/start) поднимает сохранённую сессию, если она есть, иначе меню входа.
func HandleStart(ctx context.Context, bot tg.Sender, c *controller.Controller, msg *tgbotapi.Message) {
	ResetChat(c.ChatID())
	ok, err := c.Restore(ctx)
	report("restore", c.ChatID(), err)
	if !ok || !c.State().LoggedIn() {
		showNotice(bot, c)
		send(bot, c.ChatID(), welcomeText, menu.GetRoleMenu(""))
		return
	}
	ShowHome(bot, c)
}

// ShowHome: экран по роли с меню роли; слот сообщения уходит отдельным сообщением.
func ShowHome(bot tg.Sender, c *controller.Controller) {
	st := c.State()
	chatID := c.ChatID()
	showNotice(bot, c)
	switch {
	case st.IsStudent():
		send(bot, chatID, view.StudentHome(st), menu.GetRoleMenu(st.Role()))
		sendGroupList(bot, c)
	case st.IsInstructor():
		send(bot, chatID, view.InstructorHome(st), menu.GetRoleMenu(st.Role()))
		sendGroupList(bot, c)
	default:
		send(bot, chatID, welcomeText, menu.GetRoleMenu(""))
	}
}

func HandleLogout(ctx context.Context, bot tg.Sender, c *controller.Controller) {
	ResetChat(c.ChatID())
	report("logout", c.ChatID(), c.Logout(ctx))
	send(bot, c.ChatID(), "👋 Logged out.", menu.GetRoleMenu(""))
}

// ResetChat сбрасывает все незавершённые сценарии чата (выход, /start, выгрузка контроллера).
func ResetChat(chatID int64) {
	authStates.Delete(chatID)
	profileStates.Delete(chatID)
	feedbackStates.Delete(chatID)
	scheduleStates.Delete(chatID)
	forgetNotice(chatID)
}

// HasActiveFSM: ждёт ли какой-то сценарий текстового ввода в этом чате.
func HasActiveFSM(chatID int64) bool {
	if _, ok := authStates.Get(chatID); ok {
		return true
	}
	if st, ok := profileStates.Get(chatID); ok && st.Field != "" {
		return true
	}
	if _, ok := feedbackStates.Get(chatID); ok {
		return true
	}
	_, ok := scheduleStates.Get(chatID)
	return ok
}

// HandleFSMText передаёт текст активному сценарию. false: активного сценария нет.
func HandleFSMText(ctx context.Context, bot tg.Sender, c *controller.Controller, msg *tgbotapi.Message) bool {
	chatID := c.ChatID()
	if _, ok := authStates.Get(chatID); ok {
		HandleAuthText(ctx, bot, c, msg)
		return true
	}
	if st, ok := profileStates.Get(chatID); ok && st.Field != "" {
		HandleProfileText(bot, c, msg)
		return true
	}
	if _, ok := feedbackStates.Get(chatID); ok {
		HandleFeedbackText(ctx, bot, c, msg)
		return true
	}
	if _, ok := scheduleStates.Get(chatID); ok {
		HandleScheduleText(ctx, bot, c, msg)
		return true
	}
	return false
}

// HandleCancelText: текстовая отмена на любом шаге.
func HandleCancelText(bot tg.Sender, c *controller.Controller) {
	ResetChat(c.ChatID())
	send(bot, c.ChatID(), "🚫 Cancelled.", menu.GetRoleMenu(c.State().Role()))
}
