// Package controller управляет состоянием одного чата: вход, анкета, группы, отзывы, расписание.
// Все ответы сервера проходят через session.Store, устаревшие отбрасываются.
package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Spok95/study-groups-bot/internal/api"
	"github.com/Spok95/study-groups-bot/internal/ctxutil"
	"github.com/Spok95/study-groups-bot/internal/logging"
	"github.com/Spok95/study-groups-bot/internal/models"
	"github.com/Spok95/study-groups-bot/internal/session"
)

// API: контракт study-group API, который нужен контроллеру. Реализация: *api.Client.
type API interface {
	Login(ctx context.Context, email string) (*api.AuthResponse, error)
	Register(ctx context.Context, email, name string) (*api.AuthResponse, error)
	Groups(ctx context.Context) ([]models.Group, error)
	SkillMatchStats(ctx context.Context) (models.SkillStats, error)
	SkillDistribution(ctx context.Context) ([]models.SkillCount, error)
	ReinitializeGroups(ctx context.Context) error
	UpdateProfile(ctx context.Context, upd api.ProfileUpdate) (*models.Group, error)
	SubmitFeedback(ctx context.Context, groupID int64, req api.FeedbackRequest) (models.Feedback, error)
	Schedules(ctx context.Context, groupID int64) ([]models.Schedule, error)
	AddSchedule(ctx context.Context, s models.NewSchedule) error
}

// Markers: хранилище сохранённых сессий (Postgres в проде).
type Markers interface {
	SaveSession(ctx context.Context, m models.SessionMarker) error
	GetSession(ctx context.Context, chatID int64) (*models.SessionMarker, error)
	DeleteSession(ctx context.Context, chatID int64) error
}

// InstructorUser: локальный пользователь «вход преподавателя»; сервер его не выдаёт.
var InstructorUser = models.User{ID: 0, Name: "Instructor", Email: "instructor@example.com", Role: models.Instructor}

type Controller struct {
	chatID     int64
	api        API
	markers    Markers
	store      *session.Store
	log        *zap.Logger
	refreshing atomic.Bool
}

func New(chatID int64, a API, markers Markers, store *session.Store, log *zap.Logger) *Controller {
	if store == nil {
		store = session.NewStore()
	}
	if markers == nil {
		markers = nopMarkers{}
	}
	return &Controller{
		chatID:  chatID,
		api:     a,
		markers: markers,
		store:   store,
		log:     logging.OrNop(log).With(zap.Int64("chat_id", chatID)),
	}
}

func (c *Controller) ChatID() int64         { return c.chatID }
func (c *Controller) Store() *session.Store { return c.store }
func (c *Controller) State() session.State  { return c.store.State() }

func (c *Controller) opCtx(ctx context.Context, op string) context.Context {
	return ctxutil.WithOp(ctxutil.WithChatID(ctx, c.chatID), op)
}

// reject: локальный отказ: сообщение в слот, сеть не трогаем.
func (c *Controller) reject(msg string) error {
	c.store.Dispatch(session.Failed{Message: msg})
	return invalid(msg)
}

// ===== вход / регистрация =====

func (c *Controller) SetAuthForm(email, name string, registering bool) {
	c.store.Dispatch(session.AuthFormChanged{Email: email, Name: name, Registering: registering})
}

func (c *Controller) Login(ctx context.Context, email string) error {
	return c.authenticate(c.opCtx(ctx, "login"), false, email, "")
}

// Register: после регистрации сразу пересчитываем группы, чтобы новая анкета участвовала в подборе.
func (c *Controller) Register(ctx context.Context, email, name string) error {
	return c.authenticate(c.opCtx(ctx, "register"), true, email, name)
}

func (c *Controller) authenticate(ctx context.Context, registering bool, email, name string) error {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	c.SetAuthForm(email, name, registering)
	if email == "" {
		return c.reject("Email is required.")
	}
	if registering && name == "" {
		return c.reject("Name is required.")
	}

	tok := c.store.Begin(session.OpLogin)
	c.store.Dispatch(session.LoginStarted{})
	defer c.store.Settle(tok, session.LoadingChanged{Loading: false})

	var (
		resp *api.AuthResponse
		err  error
	)
	if registering {
		resp, err = c.api.Register(ctx, email, name)
	} else {
		resp, err = c.api.Login(ctx, email)
	}
	if err != nil {
		c.store.Apply(tok, session.Failed{Message: authFailure(registering, err)})
		c.log.Info("auth failed", zap.Bool("register", registering), zap.Error(err))
		return fmt.Errorf("auth: %w", err)
	}
	if !resp.User.Role.Valid() {
		msg := authFailure(registering, fmt.Errorf("unexpected role %q", resp.User.Role))
		c.store.Apply(tok, session.Failed{Message: msg})
		return invalid(msg)
	}
	if !c.store.Apply(tok, session.LoginSucceeded{User: resp.User, MatchedGroup: resp.Matched()}) {
		return ErrStale
	}
	c.saveMarker(ctx, resp.User)

	if resp.User.Role == models.Instructor {
		return c.RefreshEvaluation(ctx)
	}
	if !c.store.Current(tok) {
		return ErrStale
	}
	if registering {
		return c.regroup(ctx)
	}
	return c.FetchGroups(ctx)
}

func authFailure(registering bool, err error) string {
	var pe *api.PayloadError
	if errors.As(err, &pe) {
		return pe.Message
	}
	base := "Login failed"
	if registering {
		base = "Registration failed"
	}
	var he *api.HTTPError
	if errors.As(err, &he) {
		if he.Message != "" {
			return base + ": " + he.Message
		}
		return base
	}
	return base + ": " + err.Error()
}

// LoginInstructor: вход преподавателя без обращения к /api/login; доступ проверяет вызывающий.
func (c *Controller) LoginInstructor(ctx context.Context) error {
	ctx = c.opCtx(ctx, "login_instructor")
	tok := c.store.Begin(session.OpLogin)
	c.store.Dispatch(session.NoticeCleared{})
	if !c.store.Apply(tok, session.LoginSucceeded{User: InstructorUser}) {
		return ErrStale
	}
	c.saveMarker(ctx, InstructorUser)
	return c.RefreshEvaluation(ctx)
}

// Restore поднимает сессию из сохранённого маркера. false: маркера нет.
func (c *Controller) Restore(ctx context.Context) (bool, error) {
	if c.State().LoggedIn() {
		return true, nil
	}
	m, err := c.markers.GetSession(ctx, c.chatID)
	if err != nil {
		return false, fmt.Errorf("restore session: %w", err)
	}
	if m == nil {
		return false, nil
	}
	c.log.Info("restoring session", zap.String("role", string(m.Role)))
	if m.Role == models.Instructor {
		return true, c.LoginInstructor(ctx)
	}
	return true, c.Login(ctx, m.Email)
}

func (c *Controller) saveMarker(ctx context.Context, u models.User) {
	err := c.markers.SaveSession(ctx, models.SessionMarker{
		ChatID: c.chatID, UserID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role,
	})
	if err != nil {
		c.log.Warn("save session marker", zap.Error(err))
	}
}

// Logout: полный сброс состояния и маркера. Повторный вызов безопасен.
func (c *Controller) Logout(ctx context.Context) error {
	c.store.Reset()
	if err := c.markers.DeleteSession(c.opCtx(ctx, "logout"), c.chatID); err != nil {
		c.log.Warn("delete session marker", zap.Error(err))
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// ===== группы и статистика =====

// FetchGroups загружает все группы; для студента без совпадений в слот попадает подсказка.
func (c *Controller) FetchGroups(ctx context.Context) error {
	ctx = c.opCtx(ctx, "fetch_groups")
	tok := c.store.Begin(session.OpGroups)
	c.store.Dispatch(session.LoadingChanged{Loading: true})
	defer c.store.Settle(tok, session.LoadingChanged{Loading: false})

	groups, err := c.api.Groups(ctx)
	if err != nil {
		c.store.Apply(tok, session.Failed{Message: "Failed to fetch groups: " + api.Message(err)})
		return fmt.Errorf("fetch groups: %w", err)
	}
	if !c.store.Apply(tok, session.GroupsFetched{Groups: groups}) {
		return ErrStale
	}
	return nil
}

func (c *Controller) fetchSkillStats(ctx context.Context) error {
	tok := c.store.Begin(session.OpStats)
	stats, err := c.api.SkillMatchStats(ctx)
	if err != nil {
		c.store.Apply(tok, session.Failed{Message: "Failed to fetch skill stats: " + api.Message(err)})
		return fmt.Errorf("fetch skill stats: %w", err)
	}
	c.store.Apply(tok, session.StatsFetched{Stats: stats})
	return nil
}

func (c *Controller) fetchSkillDistribution(ctx context.Context) error {
	tok := c.store.Begin(session.OpDistribution)
	skills, err := c.api.SkillDistribution(ctx)
	if err != nil {
		c.store.Apply(tok, session.Failed{Message: "Failed to fetch skill distribution: " + api.Message(err)})
		return fmt.Errorf("fetch skill distribution: %w", err)
	}
	c.store.Apply(tok, session.DistributionFetched{Skills: skills})
	return nil
}

// RefreshEvaluation: три запроса преподавателя. Они независимы, поэтому идут подряд
// и падение одного не отменяет остальные. Повторный вызов во время работы: ErrBusy.
func (c *Controller) RefreshEvaluation(ctx context.Context) error {
	st := c.State()
	if !st.LoggedIn() {
		return ErrNotLoggedIn
	}
	if !st.IsInstructor() {
		return c.reject("Only instructors can refresh the evaluation.")
	}
	if !c.refreshing.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer c.refreshing.Store(false)

	ctx = c.opCtx(ctx, "refresh_evaluation")
	return errors.Join(
		c.FetchGroups(ctx),
		c.fetchSkillStats(ctx),
		c.fetchSkillDistribution(ctx),
	)
}

func (c *Controller) reinitialize(ctx context.Context) error {
	tok := c.store.Epoch()
	if err := c.api.ReinitializeGroups(ctx); err != nil {
		c.store.Apply(tok, session.Failed{Message: "Failed to reinitialize groups: " + api.Message(err)})
		return fmt.Errorf("reinitialize groups: %w", err)
	}
	return nil
}

// regroup: reinitialize → refetch; упавший шаг называется в StageError.
func (c *Controller) regroup(ctx context.Context) error {
	return RunPipeline(ctx,
		Stage{Name: "reinitialize", Run: c.reinitialize},
		Stage{Name: "refetch", Run: c.FetchGroups},
	)
}

// ===== анкета =====

func (c *Controller) EditProfile(field session.ProfileField, raw string) error {
	if !field.Valid() {
		return invalid(fmt.Sprintf("Unknown profile field %q.", field))
	}
	if c.State().Profile == nil {
		return ErrNotLoggedIn
	}
	c.store.Dispatch(session.ProfileFieldEdited{Field: field, Raw: raw})
	return nil
}

// SaveProfile отправляет анкету. После успеха всегда reinitialize → refetch:
// не полагаемся на то, что /api/profile сам пересчитал группы.
func (c *Controller) SaveProfile(ctx context.Context) error {
	st := c.State()
	if st.User == nil || st.Profile == nil {
		return ErrNotLoggedIn
	}
	p := st.Profile.Normalized()
	if len(p.Skills) == 0 {
		return c.reject("Please enter at least one skill (e.g., python, javascript, java).")
	}
	p.ID = st.User.ID

	ctx = c.opCtx(ctx, "save_profile")
	tok := c.store.Begin(session.OpProfile)
	c.store.Dispatch(session.NoticeCleared{})
	c.store.Dispatch(session.LoadingChanged{Loading: true})
	defer c.store.Settle(tok, session.LoadingChanged{Loading: false})

	matched, err := c.api.UpdateProfile(ctx, api.ProfileUpdate{Profile: p, UpdateSkills: true})
	if err != nil {
		c.store.Apply(tok, session.Failed{Message: "Profile update failed: " + api.Message(err)})
		return fmt.Errorf("save profile: %w", err)
	}
	if !c.store.Apply(tok, session.ProfileSaved{MatchedGroup: matched}) {
		return ErrStale
	}
	u := *st.User
	u.Name, u.Email = p.Name, p.Email
	c.saveMarker(ctx, u)
	return c.regroup(ctx)
}

// ===== отзывы =====

func (c *Controller) SetFeedbackDraft(groupID int64, text string, rating *int) {
	c.store.Dispatch(session.FeedbackDraftChanged{GroupID: groupID, Text: text, Rating: rating})
}

// SubmitFeedback отправляет черновик отзыва группы. Пустой текст отклоняется без запроса.
// При успехе отзыв дописывается в локальный список группы, черновик очищается.
func (c *Controller) SubmitFeedback(ctx context.Context, groupID int64) (models.Feedback, error) {
	st := c.State()
	if st.User == nil {
		return models.Feedback{}, ErrNotLoggedIn
	}
	if st.IsInstructor() {
		return models.Feedback{}, c.reject("Instructors cannot submit feedback.")
	}
	d := st.Drafts[groupID]
	if strings.TrimSpace(d.Text) == "" {
		return models.Feedback{}, c.reject("Feedback cannot be empty.")
	}
	if d.Rating != nil && (*d.Rating < 1 || *d.Rating > 5) {
		return models.Feedback{}, c.reject("Rating must be between 1 and 5.")
	}

	ctx = c.opCtx(ctx, "submit_feedback")
	tok := c.store.Epoch()
	fb, err := c.api.SubmitFeedback(ctx, groupID, api.FeedbackRequest{Feedback: d.Text, Rating: d.Rating, UserID: st.User.ID})
	if err != nil {
		c.store.Apply(tok, session.Failed{Message: "Failed to submit feedback: " + api.Message(err)})
		return models.Feedback{}, fmt.Errorf("submit feedback: %w", err)
	}
	if !c.store.Apply(tok, session.FeedbackAdded{GroupID: groupID, Entry: fb}) {
		return fb, ErrStale
	}
	return fb, nil
}

// ===== расписание =====

func (c *Controller) Schedules(ctx context.Context, groupID int64) ([]models.Schedule, error) {
	ctx = c.opCtx(ctx, "schedules")
	tok := c.store.Begin(session.ScheduleOp(groupID))
	items, err := c.api.Schedules(ctx, groupID)
	if err != nil {
		c.store.Apply(tok, session.ScheduleFailed{GroupID: groupID, Message: "Failed to fetch schedules: " + api.Message(err)})
		return nil, fmt.Errorf("fetch schedules: %w", err)
	}
	if !c.store.Apply(tok, session.SchedulesFetched{GroupID: groupID, Items: items}) {
		return nil, ErrStale
	}
	return items, nil
}

// AddSchedule: только для студентов; после успеха список группы перечитывается целиком,
// порядок и id назначает сервер.
func (c *Controller) AddSchedule(ctx context.Context, ns models.NewSchedule) ([]models.Schedule, error) {
	st := c.State()
	if st.User == nil {
		return nil, ErrNotLoggedIn
	}
	rejectSchedule := func(msg string) error {
		c.store.Dispatch(session.ScheduleFailed{GroupID: ns.GroupID, Message: msg})
		return invalid(msg)
	}
	if st.IsInstructor() {
		return nil, rejectSchedule("Instructors cannot add schedules.")
	}
	ns = ns.Trimmed()
	if msg := validateSchedule(ns); msg != "" {
		return nil, rejectSchedule(msg)
	}

	ctx = c.opCtx(ctx, "add_schedule")
	tok := c.store.Epoch()
	if err := c.api.AddSchedule(ctx, ns); err != nil {
		c.store.Apply(tok, session.ScheduleFailed{GroupID: ns.GroupID, Message: "Failed to add schedule: " + api.Message(err)})
		return nil, fmt.Errorf("add schedule: %w", err)
	}
	return c.Schedules(ctx, ns.GroupID)
}

type nopMarkers struct{}

func (nopMarkers) SaveSession(context.Context, models.SessionMarker) error { return nil }
func (nopMarkers) GetSession(context.Context, int64) (*models.SessionMarker, error) {
	return nil, nil
}
func (nopMarkers) DeleteSession(context.Context, int64) error { return nil }
