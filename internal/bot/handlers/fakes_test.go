package handlers

import (
	"context"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/study-groups-bot/internal/api"
	"github.com/Spok95/study-groups-bot/internal/controller"
	"github.com/Spok95/study-groups-bot/internal/models"
	"github.com/Spok95/study-groups-bot/internal/session"
)

type fakeBot struct {
	mu   sync.Mutex
	next int
	sent []tgbotapi.Chattable
	reqs []tgbotapi.Chattable
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	b.sent = append(b.sent, c)
	return tgbotapi.Message{MessageID: b.next}, nil
}

func (b *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reqs = append(b.reqs, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (b *fakeBot) texts() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, c := range b.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m.Text)
		}
	}
	return out
}

func (b *fakeBot) deleted() []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []int
	for _, c := range b.reqs {
		if d, ok := c.(tgbotapi.DeleteMessageConfig); ok {
			out = append(out, d.MessageID)
		}
	}
	return out
}

type fakeAPI struct {
	mu        sync.Mutex
	calls     []string
	user      models.User
	groups    []models.Group
	schedules []models.Schedule
	lastFB    api.FeedbackRequest
}

func (f *fakeAPI) rec(n string) {
	f.mu.Lock()
	f.calls = append(f.calls, n)
	f.mu.Unlock()
}

func (f *fakeAPI) count(n string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := 0
	for _, x := range f.calls {
		if x == n {
			c++
		}
	}
	return c
}

func (f *fakeAPI) Login(context.Context, string) (*api.AuthResponse, error) {
	f.rec("login")
	return &api.AuthResponse{User: f.user}, nil
}

func (f *fakeAPI) Register(_ context.Context, email, name string) (*api.AuthResponse, error) {
	f.rec("register")
	u := f.user
	u.Email, u.Name = email, name
	return &api.AuthResponse{User: u}, nil
}

func (f *fakeAPI) Groups(context.Context) ([]models.Group, error) {
	f.rec("groups")
	return f.groups, nil
}

func (f *fakeAPI) SkillMatchStats(context.Context) (models.SkillStats, error) {
	f.rec("skill_match_stats")
	return models.SkillStats{Grouped: 1}, nil
}

func (f *fakeAPI) SkillDistribution(context.Context) ([]models.SkillCount, error) {
	f.rec("skill_distribution")
	return []models.SkillCount{{Skill: "python", Count: 2}}, nil
}

func (f *fakeAPI) ReinitializeGroups(context.Context) error {
	f.rec("reinitialize")
	return nil
}

func (f *fakeAPI) UpdateProfile(context.Context, api.ProfileUpdate) (*models.Group, error) {
	f.rec("profile")
	return nil, nil
}

func (f *fakeAPI) SubmitFeedback(_ context.Context, _ int64, req api.FeedbackRequest) (models.Feedback, error) {
	f.rec("feedback")
	f.lastFB = req
	return models.Feedback{ID: 1, Content: req.Feedback, Rating: req.Rating, UserID: req.UserID}, nil
}

func (f *fakeAPI) Schedules(context.Context, int64) ([]models.Schedule, error) {
	f.rec("schedules")
	return f.schedules, nil
}

func (f *fakeAPI) AddSchedule(context.Context, models.NewSchedule) error {
	f.rec("add_schedule")
	return nil
}

type manualTimer struct{}

func (manualTimer) Stop() bool { return true }

func newTestController(chatID int64, a *fakeAPI) *controller.Controller {
	store := session.NewStore(session.WithAfterFunc(func(_ time.Duration, _ func()) session.Stopper { return manualTimer{} }))
	ResetChat(chatID)
	return controller.New(chatID, a, nil, store, nil)
}

func textMsg(chatID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{Text: text, Chat: &tgbotapi.Chat{ID: chatID}}
}

func callback(chatID int64, data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:      "cb",
		Data:    data,
		Message: &tgbotapi.Message{MessageID: 500, Chat: &tgbotapi.Chat{ID: chatID}},
	}
}

func ana() models.User {
	return models.User{ID: 3, Email: "ana@x.io", Name: "Ana Lee", Role: models.Student, Skills: []string{"python"}}
}

var anaGroups = []models.Group{
	{ID: 1, Name: "Python Pals", Members: []string{"Ana Lee", "Bo"}},
	{ID: 2, Name: "JS Crew", Members: []string{"Cy"}},
}
