package handlers

import (
	"context"
	"errors"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Spok95/study-groups-bot/internal/bot/shared/fsmutil"
	"github.com/Spok95/study-groups-bot/internal/controller"
	"github.com/Spok95/study-groups-bot/internal/export"
	"github.com/Spok95/study-groups-bot/internal/metrics"
	"github.com/Spok95/study-groups-bot/internal/observability"
	"github.com/Spok95/study-groups-bot/internal/tg"
)

const instructorOnly = "Only instructors can use this."

func HandleDashboard(bot tg.Sender, c *controller.Controller) {
	if !c.State().IsInstructor() {
		send(bot, c.ChatID(), instructorOnly, nil)
		return
	}
	ShowHome(bot, c)
}

// HandleRefresh: «Refresh Evaluation». Повторное нажатие во время обновления только сообщает об этом.
func HandleRefresh(ctx context.Context, bot tg.Sender, c *controller.Controller) {
	chatID := c.ChatID()
	if !c.State().IsInstructor() {
		send(bot, chatID, instructorOnly, nil)
		return
	}
	if !fsmutil.SetPending(chatID, "refresh") {
		send(bot, chatID, "⏳ Refresh is already running.", nil)
		return
	}
	defer fsmutil.ClearPending(chatID, "refresh")

	err := c.RefreshEvaluation(ctx)
	if errors.Is(err, controller.ErrBusy) {
		send(bot, chatID, "⏳ Refresh is already running.", nil)
		return
	}
	report("refresh_evaluation", chatID, err)
	ShowHome(bot, c)
}

// HandleExport: xlsx с группами и распределением навыков по текущему состоянию экрана.
func HandleExport(bot tg.Sender, c *controller.Controller, now time.Time) {
	chatID := c.ChatID()
	st := c.State()
	if !st.IsInstructor() {
		send(bot, chatID, instructorOnly, nil)
		return
	}
	if !fsmutil.SetPending(chatID, "export") {
		send(bot, chatID, "⏳ Export is already running.", nil)
		return
	}
	defer fsmutil.ClearPending(chatID, "export")

	wb, err := export.BuildEvaluationWorkbook(st)
	var data []byte
	if err == nil {
		data, err = wb.Bytes()
	}
	if err != nil {
		metrics.HandlerErrors.Inc()
		observability.CaptureErr(err)
		log.Error("build evaluation workbook", zap.Int64("chat_id", chatID), zap.Error(err))
		send(bot, chatID, "❌ Export failed.", nil)
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: export.EvaluationFilename(now), Bytes: data})
	doc.Caption = "Study groups evaluation"
	if _, err := tg.Send(bot, doc); err != nil {
		metrics.HandlerErrors.Inc()
	}
}
