package handlers

import (
	"context"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/study-groups-bot/internal/controller"
	"github.com/Spok95/study-groups-bot/internal/models"
	"github.com/Spok95/study-groups-bot/internal/session"
)

func containsText(texts []string, sub string) bool {
	for _, t := range texts {
		if strings.Contains(t, sub) {
			return true
		}
	}
	return false
}

func loggedInStudent(t *testing.T, chatID int64, a *fakeAPI) (*fakeBot, *controller.Controller) {
	t.Helper()
	bot := &fakeBot{}
	c := newTestController(chatID, a)
	StartAuthFSM(bot, c, false)
	if !HandleFSMText(context.Background(), bot, c, textMsg(chatID, "ana@x.io")) {
		t.Fatal("auth FSM must consume the email")
	}
	if !c.State().LoggedIn() {
		t.Fatal("login failed")
	}
	return bot, c
}

func TestLoginShowsStudentHome(t *testing.T) {
	a := &fakeAPI{user: ana(), groups: anaGroups}
	bot, _ := loggedInStudent(t, 101, a)

	texts := bot.texts()
	if !containsText(texts, "Welcome, Ana Lee") || !containsText(texts, "Open a group:") {
		t.Fatalf("texts = %q", texts)
	}
	if HasActiveFSM(101) {
		t.Fatal("auth FSM must finish after login")
	}
}

func TestRegisterAsksNameAgainWhenBlank(t *testing.T) {
	a := &fakeAPI{user: ana(), groups: anaGroups}
	bot := &fakeBot{}
	c := newTestController(102, a)
	ctx := context.Background()

	StartAuthFSM(bot, c, true)
	HandleFSMText(ctx, bot, c, textMsg(102, "ana@x.io"))
	HandleFSMText(ctx, bot, c, textMsg(102, "   "))

	if a.count("register") != 0 {
		t.Fatal("blank name must not reach the server")
	}
	if st, _ := authStates.Get(102); st == nil || st.Step != authStepName {
		t.Fatalf("state = %+v", st)
	}
	if !containsText(bot.texts(), "❌ Name is required.") {
		t.Fatalf("texts = %q", bot.texts())
	}

	HandleFSMText(ctx, bot, c, textMsg(102, "Ana Lee"))
	if got := strings.Join(a.calls, ","); got != "register,reinitialize,groups" {
		t.Fatalf("calls = %s", got)
	}
}

func TestWarningMessageDeletedOnExpiry(t *testing.T) {
	a := &fakeAPI{user: ana(), groups: []models.Group{{ID: 2, Members: []string{"Cy"}}}}
	bot, c := loggedInStudent(t, 103, a)

	n := c.State().Notice
	if n == nil || n.Kind != session.NoticeWarning {
		t.Fatalf("notice = %+v", n)
	}
	cur, ok := shown.m[103]
	if !ok || cur.noticeID != n.ID {
		t.Fatal("warning must be shown as its own message")
	}

	ExpireNotice(bot, 103, session.Notice{ID: n.ID + 100})
	if len(bot.deleted()) != 0 {
		t.Fatal("expiry of another notice must not delete anything")
	}
	ExpireNotice(bot, 103, *n)
	if got := bot.deleted(); len(got) != 1 || got[0] != cur.messageID {
		t.Fatalf("deleted = %v, want [%d]", got, cur.messageID)
	}
}

func TestProfileSaveRejectsEmptySkills(t *testing.T) {
	a := &fakeAPI{user: ana(), groups: anaGroups}
	bot, c := loggedInStudent(t, 104, a)
	ctx := context.Background()

	StartProfileFSM(bot, c)
	HandleProfileCallback(ctx, bot, c, callback(104, ProfField+"skills"))
	HandleFSMText(ctx, bot, c, textMsg(104, " , "))
	HandleProfileCallback(ctx, bot, c, callback(104, ProfSave))

	if a.count("profile") != 0 {
		t.Fatal("empty skills must not reach /api/profile")
	}
	if !containsText(bot.texts(), "Please enter at least one skill") {
		t.Fatalf("texts = %q", bot.texts())
	}
	if _, ok := profileStates.Get(104); !ok {
		t.Fatal("profile FSM stays open after a validation error")
	}

	HandleProfileCallback(ctx, bot, c, callback(104, ProfField+"skills"))
	HandleFSMText(ctx, bot, c, textMsg(104, "Go, Rust"))
	HandleProfileCallback(ctx, bot, c, callback(104, ProfSave))
	if a.count("profile") != 1 || a.count("reinitialize") != 1 {
		t.Fatalf("calls = %v", a.calls)
	}
	if _, ok := profileStates.Get(104); ok {
		t.Fatal("profile FSM must finish after save")
	}
}

func TestFeedbackFlow(t *testing.T) {
	a := &fakeAPI{user: ana(), groups: anaGroups}
	bot, c := loggedInStudent(t, 105, a)
	ctx := context.Background()

	StartFeedbackFSM(bot, c, callback(105, CbFeedback+"1"))
	HandleFSMText(ctx, bot, c, textMsg(105, "great group"))
	HandleFeedbackCallback(ctx, bot, c, callback(105, FbRate+"5"))

	if a.count("feedback") != 1 || a.lastFB.Rating == nil || *a.lastFB.Rating != 5 || a.lastFB.UserID != 3 {
		t.Fatalf("request = %+v", a.lastFB)
	}
	if !containsText(bot.texts(), "✅ Feedback submitted.") || !containsText(bot.texts(), "• great group (5/5)") {
		t.Fatalf("texts = %q", bot.texts())
	}
	if _, ok := c.State().Drafts[1]; ok {
		t.Fatal("draft must be cleared")
	}
}

func TestFeedbackBadTypedRatingAsksAgain(t *testing.T) {
	a := &fakeAPI{user: ana(), groups: anaGroups}
	bot, c := loggedInStudent(t, 106, a)
	ctx := context.Background()

	StartFeedbackFSM(bot, c, callback(106, CbFeedback+"1"))
	HandleFSMText(ctx, bot, c, textMsg(106, "ok"))
	HandleFSMText(ctx, bot, c, textMsg(106, "9"))

	if a.count("feedback") != 0 {
		t.Fatal("out-of-range rating must be rejected locally")
	}
	if st, ok := feedbackStates.Get(106); !ok || st.Step != fbStepRating {
		t.Fatal("FSM must wait for a rating again")
	}
}

func TestScheduleFlow(t *testing.T) {
	a := &fakeAPI{user: ana(), groups: anaGroups, schedules: []models.Schedule{{ID: 9, GroupID: 1, Date: "2026-10-20", StartTime: "10:00", EndTime: "11:00"}}}
	bot, c := loggedInStudent(t, 107, a)
	ctx := context.Background()

	StartScheduleFSM(ctx, bot, c, callback(107, CbScheduleAdd+"1"))
	for _, in := range []string{"2026-10-20", "10:00", "11:00"} {
		HandleFSMText(ctx, bot, c, textMsg(107, in))
	}
	HandleScheduleCallback(ctx, bot, c, callback(107, SchSkip))
	HandleScheduleCallback(ctx, bot, c, callback(107, SchSkip))

	if a.count("add_schedule") != 1 || a.count("schedules") != 1 {
		t.Fatalf("calls = %v", a.calls)
	}
	if !containsText(bot.texts(), "Time: 10:00 - 11:00") {
		t.Fatalf("texts = %q", bot.texts())
	}
}

func TestInstructorCannotAddSchedule(t *testing.T) {
	a := &fakeAPI{groups: anaGroups}
	bot := &fakeBot{}
	c := newTestController(108, a)
	ctx := context.Background()
	HandleInstructorLogin(ctx, bot, c, true)

	StartScheduleFSM(ctx, bot, c, callback(108, CbScheduleAdd+"1"))
	if a.count("add_schedule") != 0 {
		t.Fatal("instructor must not reach /api/schedule")
	}
	if !containsText(bot.texts(), "❌ Instructors cannot add schedules.") {
		t.Fatalf("texts = %q", bot.texts())
	}
	if HasActiveFSM(108) {
		t.Fatal("no FSM for instructors")
	}
}

func TestInstructorLoginRequiresAccess(t *testing.T) {
	a := &fakeAPI{groups: anaGroups}
	bot := &fakeBot{}
	c := newTestController(109, a)
	HandleInstructorLogin(context.Background(), bot, c, false)
	if c.State().LoggedIn() || len(a.calls) != 0 {
		t.Fatal("denied instructor login must not change state")
	}
}

func TestRefreshAndExport(t *testing.T) {
	a := &fakeAPI{groups: anaGroups}
	bot := &fakeBot{}
	c := newTestController(110, a)
	ctx := context.Background()
	HandleInstructorLogin(ctx, bot, c, true)
	HandleRefresh(ctx, bot, c)

	if a.count("skill_distribution") != 2 {
		t.Fatalf("calls = %v", a.calls)
	}
	if !containsText(bot.texts(), "python ") {
		t.Fatalf("skill chart missing: %q", bot.texts())
	}

	HandleExport(bot, c, time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC))
	var doc *tgbotapi.DocumentConfig
	for _, s := range bot.sent {
		if d, ok := s.(tgbotapi.DocumentConfig); ok {
			doc = &d
		}
	}
	if doc == nil {
		t.Fatal("export must send a document")
	}
	fb, ok := doc.File.(tgbotapi.FileBytes)
	if !ok || len(fb.Bytes) == 0 || !strings.HasSuffix(fb.Name, ".xlsx") {
		t.Fatalf("file = %#v", doc.File)
	}
}

func TestCancelTextResetsFSM(t *testing.T) {
	a := &fakeAPI{user: ana(), groups: anaGroups}
	bot, c := loggedInStudent(t, 111, a)
	StartFeedbackFSM(bot, c, callback(111, CbFeedback+"1"))
	if !HasActiveFSM(111) {
		t.Fatal("feedback FSM expected")
	}
	HandleCancelText(bot, c)
	if HasActiveFSM(111) {
		t.Fatal("cancel must reset every FSM")
	}
}

func TestLogout(t *testing.T) {
	a := &fakeAPI{user: ana(), groups: anaGroups}
	bot, c := loggedInStudent(t, 112, a)
	HandleLogout(context.Background(), bot, c)
	if c.State().LoggedIn() {
		t.Fatal("logged out")
	}
	if !containsText(bot.texts(), "👋 Logged out.") {
		t.Fatalf("texts = %q", bot.texts())
	}
}
