package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/study-groups-bot/internal/bot/shared/fsmutil"
	"github.com/Spok95/study-groups-bot/internal/controller"
	"github.com/Spok95/study-groups-bot/internal/tg"
)

const (
	fbStepText = iota
	fbStepRating

	FbRate   = "fb_rate:"
	FbSkip   = "fb_skip"
	FbCancel = "fb_cancel"
)

type FeedbackState struct {
	Step      int
	GroupID   int64
	Text      string
	MessageID int
}

var feedbackStates = fsmutil.NewStates[*FeedbackState]()

func StartFeedbackFSM(bot tg.Sender, c *controller.Controller, cb *tgbotapi.CallbackQuery) {
	chatID := c.ChatID()
	id, ok := parseID(cb.Data, CbFeedback)
	if !ok {
		answer(bot, cb, "")
		return
	}
	st := c.State()
	g, found := st.Group(id)
	if !found {
		answer(bot, cb, "Group not found. Refresh the list.")
		return
	}
	answer(bot, cb, "")
	if st.IsInstructor() {
		send(bot, chatID, "❌ Instructors cannot submit feedback.", nil)
		return
	}

	state := &FeedbackState{Step: fbStepText, GroupID: id}
	if d, ok := st.Drafts[id]; ok {
		state.Text = d.Text
	}
	feedbackStates.Set(chatID, state)
	state.MessageID = sendInline(bot, chatID, "✍️ Feedback for "+groupLabel(g.Name, g.ID)+"\nWrite your feedback:",
		tgbotapi.NewInlineKeyboardMarkup(fsmutil.CancelRow(FbCancel)))
}

func ratingKeyboard() tgbotapi.InlineKeyboardMarkup {
	row := make([]tgbotapi.InlineKeyboardButton, 0, 5)
	for i := 1; i <= 5; i++ {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(strconv.Itoa(i), FbRate+strconv.Itoa(i)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		row,
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Skip rating", FbSkip)),
		fsmutil.CancelRow(FbCancel),
	)
}

func HandleFeedbackText(ctx context.Context, bot tg.Sender, c *controller.Controller, msg *tgbotapi.Message) {
	chatID := c.ChatID()
	state, ok := feedbackStates.Get(chatID)
	if !ok {
		return
	}
	switch state.Step {
	case fbStepText:
		state.Text = msg.Text
		c.SetFeedbackDraft(state.GroupID, state.Text, nil)
		fsmutil.DisableMarkup(bot, chatID, state.MessageID)
		state.Step = fbStepRating
		state.MessageID = sendInline(bot, chatID, "Rate the group from 1 to 5 (optional):", ratingKeyboard())
	case fbStepRating:
		// рейтинг можно и напечатать
		n, err := strconv.Atoi(strings.TrimSpace(msg.Text))
		if err != nil {
			sendInline(bot, chatID, "Send a number from 1 to 5 or press Skip.", ratingKeyboard())
			return
		}
		submitFeedback(ctx, bot, c, state, &n)
	}
}

func HandleFeedbackCallback(ctx context.Context, bot tg.Sender, c *controller.Controller, cb *tgbotapi.CallbackQuery) {
	chatID := c.ChatID()
	answer(bot, cb, "")
	state, ok := feedbackStates.Get(chatID)
	if !ok {
		fsmutil.DisableMarkup(bot, chatID, cb.Message.MessageID)
		return
	}
	switch {
	case cb.Data == FbCancel:
		fsmutil.DisableMarkup(bot, chatID, state.MessageID)
		feedbackStates.Delete(chatID)
		send(bot, chatID, "🚫 Cancelled.", nil)
	case cb.Data == FbSkip && state.Step == fbStepRating:
		submitFeedback(ctx, bot, c, state, nil)
	case strings.HasPrefix(cb.Data, FbRate) && state.Step == fbStepRating:
		n, err := strconv.Atoi(strings.TrimPrefix(cb.Data, FbRate))
		if err != nil {
			return
		}
		submitFeedback(ctx, bot, c, state, &n)
	}
}

func submitFeedback(ctx context.Context, bot tg.Sender, c *controller.Controller, state *FeedbackState, rating *int) {
	chatID := c.ChatID()
	fsmutil.DisableMarkup(bot, chatID, state.MessageID)
	c.SetFeedbackDraft(state.GroupID, state.Text, rating)

	_, err := c.SubmitFeedback(ctx, state.GroupID)
	report("submit_feedback", chatID, err)
	if err != nil {
		showNotice(bot, c)
		// неверная оценка: спрашиваем оценку снова, остальные отказы завершают сценарий
		if errors.Is(err, controller.ErrValidation) && strings.TrimSpace(state.Text) != "" && !c.State().IsInstructor() {
			state.MessageID = sendInline(bot, chatID, "Rate the group from 1 to 5 (optional):", ratingKeyboard())
			return
		}
		feedbackStates.Delete(chatID)
		return
	}
	feedbackStates.Delete(chatID)
	send(bot, chatID, "✅ Feedback submitted.", nil)
	st := c.State()
	if g, ok := st.Group(state.GroupID); ok {
		sendGroupCard(bot, chatID, st, g)
	}
}

func groupLabel(name string, id int64) string {
	if name != "" {
		return name
	}
	return "Group #" + strconv.FormatInt(id, 10)
}
