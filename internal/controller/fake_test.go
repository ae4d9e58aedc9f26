package controller

import (
	"context"
	"sync"

	"github.com/Spok95/study-groups-bot/internal/api"
	"github.com/Spok95/study-groups-bot/internal/models"
)

// fakeAPI записывает порядок вызовов и отдаёт заранее заданные ответы.
type fakeAPI struct {
	mu    sync.Mutex
	calls []string

	auth      *api.AuthResponse
	authErr   error
	groups    []models.Group
	groupsErr error
	stats     models.SkillStats
	statsErr  error
	dist      []models.SkillCount
	reinitErr error
	matched   *models.Group
	profErr   error
	lastProf  api.ProfileUpdate
	feedback  models.Feedback
	fbErr     error
	lastFB    api.FeedbackRequest
	schedules []models.Schedule
	addErr    error

	// beforeGroups вызывается внутри Groups до ответа (для гонок)
	beforeGroups func()
}

func (f *fakeAPI) record(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
}

func (f *fakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAPI) Login(_ context.Context, email string) (*api.AuthResponse, error) {
	f.record("login")
	return f.auth, f.authErr
}

func (f *fakeAPI) Register(_ context.Context, email, name string) (*api.AuthResponse, error) {
	f.record("register")
	return f.auth, f.authErr
}

func (f *fakeAPI) Groups(context.Context) ([]models.Group, error) {
	f.record("groups")
	if f.beforeGroups != nil {
		f.beforeGroups()
	}
	return f.groups, f.groupsErr
}

func (f *fakeAPI) SkillMatchStats(context.Context) (models.SkillStats, error) {
	f.record("skill_match_stats")
	return f.stats, f.statsErr
}

func (f *fakeAPI) SkillDistribution(context.Context) ([]models.SkillCount, error) {
	f.record("skill_distribution")
	return f.dist, nil
}

func (f *fakeAPI) ReinitializeGroups(context.Context) error {
	f.record("reinitialize")
	return f.reinitErr
}

func (f *fakeAPI) UpdateProfile(_ context.Context, upd api.ProfileUpdate) (*models.Group, error) {
	f.record("profile")
	f.lastProf = upd
	return f.matched, f.profErr
}

func (f *fakeAPI) SubmitFeedback(_ context.Context, groupID int64, req api.FeedbackRequest) (models.Feedback, error) {
	f.record("feedback")
	f.lastFB = req
	return f.feedback, f.fbErr
}

func (f *fakeAPI) Schedules(context.Context, int64) ([]models.Schedule, error) {
	f.record("schedules")
	return f.schedules, nil
}

func (f *fakeAPI) AddSchedule(context.Context, models.NewSchedule) error {
	f.record("add_schedule")
	return f.addErr
}

type memMarkers struct {
	mu sync.Mutex
	m  map[int64]models.SessionMarker
}

func newMemMarkers() *memMarkers { return &memMarkers{m: map[int64]models.SessionMarker{}} }

func (s *memMarkers) SaveSession(_ context.Context, m models.SessionMarker) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[m.ChatID] = m
	return nil
}

func (s *memMarkers) GetSession(_ context.Context, chatID int64) (*models.SessionMarker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.m[chatID]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (s *memMarkers) DeleteSession(_ context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, chatID)
	return nil
}
