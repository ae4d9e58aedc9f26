package handlers

import (
	"context"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/study-groups-bot/internal/controller"
	"github.com/Spok95/study-groups-bot/internal/models"
	"github.com/Spok95/study-groups-bot/internal/session"
	"github.com/Spok95/study-groups-bot/internal/tg"
	"github.com/Spok95/study-groups-bot/internal/view"
)

const (
	CbGroup       = "grp:"
	CbSchedules   = "sch:"
	CbFeedback    = "fb:"
	CbScheduleAdd = "sch_add:"
)

func idData(prefix string, id int64) string { return prefix + strconv.FormatInt(id, 10) }

// visibleGroups: студент видит только свои группы, преподаватель видит все.
func visibleGroups(st session.State) []models.Group {
	if st.IsInstructor() {
		return st.Groups
	}
	return st.MyGroups()
}

// sendGroupList: по кнопке на каждую видимую группу.
func sendGroupList(bot tg.Sender, c *controller.Controller) {
	groups := visibleGroups(c.State())
	if len(groups) == 0 {
		return
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👥 "+groupLabel(g.Name, g.ID), idData(CbGroup, g.ID)),
		))
	}
	sendInline(bot, c.ChatID(), "Open a group:", tgbotapi.NewInlineKeyboardMarkup(rows...))
}

// HandleMyGroups («My groups») перечитывает группы и показывает свои.
func HandleMyGroups(ctx context.Context, bot tg.Sender, c *controller.Controller) {
	chatID := c.ChatID()
	st := c.State()
	if !st.LoggedIn() {
		send(bot, chatID, "Please login first.", nil)
		return
	}
	report("fetch_groups", chatID, c.FetchGroups(ctx))
	ShowMyGroups(bot, c)
}

// ShowMyGroups показывает уже загруженные группы без запроса к API.
func ShowMyGroups(bot tg.Sender, c *controller.Controller) {
	chatID := c.ChatID()
	showNotice(bot, c)

	st := c.State()
	if len(visibleGroups(st)) == 0 {
		text := view.NoGroupsStudent
		if st.IsInstructor() {
			text = view.NoGroupsInstructor
		}
		send(bot, chatID, text, nil)
		return
	}
	sendGroupList(bot, c)
}

func groupKeyboard(st session.State, groupID int64) tgbotapi.InlineKeyboardMarkup {
	row := []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("🗓 Schedules", idData(CbSchedules, groupID)),
	}
	if st.IsStudent() {
		row = append([]tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("✍️ Feedback", idData(CbFeedback, groupID)),
		}, row...)
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

func HandleGroupCallback(bot tg.Sender, c *controller.Controller, cb *tgbotapi.CallbackQuery) {
	id, ok := parseID(cb.Data, CbGroup)
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
	sendGroupCard(bot, c.ChatID(), st, g)
}

func sendGroupCard(bot tg.Sender, chatID int64, st session.State, g models.Group) {
	sendInline(bot, chatID, view.GroupCard(g), groupKeyboard(st, g.ID))
}

func HandleSchedulesCallback(ctx context.Context, bot tg.Sender, c *controller.Controller, cb *tgbotapi.CallbackQuery) {
	id, ok := parseID(cb.Data, CbSchedules)
	if !ok {
		answer(bot, cb, "")
		return
	}
	answer(bot, cb, "")
	_, err := c.Schedules(ctx, id)
	report("schedules", c.ChatID(), err)
	sendSchedules(bot, c, id)
}

func sendSchedules(bot tg.Sender, c *controller.Controller, groupID int64) {
	st := c.State()
	g, ok := st.Group(groupID)
	if !ok {
		g = models.Group{ID: groupID}
	}
	mk := tgbotapi.NewInlineKeyboardMarkup()
	if st.IsStudent() {
		mk = tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Add session", idData(CbScheduleAdd, groupID)),
		))
	}
	sendInline(bot, c.ChatID(), view.Schedules(g, st.Schedules[groupID]), mk)
}
