package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Spok95/study-groups-bot/internal/ctxutil"
	"github.com/Spok95/study-groups-bot/internal/logging"
	"github.com/Spok95/study-groups-bot/internal/metrics"
	"github.com/Spok95/study-groups-bot/internal/models"
	"github.com/Spok95/study-groups-bot/internal/observability"
)

const maxBody = 4 << 20

// Client: HTTP-клиент study-group API. Сам API для нас чёрный ящик.
type Client struct {
	base string
	hc   *http.Client
	log  *zap.Logger
}

func New(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	return NewWithHTTPClient(baseURL, &http.Client{Timeout: timeout}, log)
}

func NewWithHTTPClient(baseURL string, hc *http.Client, log *zap.Logger) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		hc:   hc,
		log:  logging.OrNop(log),
	}
}

// envelope: общее для всех ответов поле ошибки.
type envelope struct {
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, endpoint, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", endpoint, err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil || method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}
	reqID, ok := ctxutil.RequestID(ctx)
	if !ok {
		reqID = uuid.NewString()
	}
	req.Header.Set("X-Request-ID", reqID)

	log := c.log.With(zap.String("endpoint", endpoint), zap.String("request_id", reqID))
	if chatID, ok := ctxutil.ChatID(ctx); ok {
		log = log.With(zap.Int64("chat_id", chatID))
	}

	t0 := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		metrics.ObserveAPI(endpoint, "transport", time.Since(t0))
		err = fmt.Errorf("%s %s: %w", method, path, err)
		if ctx.Err() == nil {
			observability.CaptureErrTags(err, map[string]string{"endpoint": endpoint})
		}
		log.Warn("api transport error", zap.Error(err))
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		metrics.ObserveAPI(endpoint, "transport", time.Since(t0))
		return fmt.Errorf("%s %s: read body: %w", method, path, err)
	}

	var env envelope
	if len(bytes.TrimSpace(raw)) > 0 {
		// тело может быть не JSON (например, html от прокси): тогда поле error просто пустое
		_ = json.Unmarshal(raw, &env)
	}

	if resp.StatusCode/100 != 2 {
		metrics.ObserveAPI(endpoint, "http_"+strconv.Itoa(resp.StatusCode), time.Since(t0))
		he := &HTTPError{Method: method, Path: path, Status: resp.StatusCode, Message: env.Error}
		if he.Server() {
			observability.CaptureErrTags(he, map[string]string{"endpoint": endpoint})
		}
		log.Info("api rejected request", zap.Int("status", resp.StatusCode), zap.String("error", env.Error))
		return he
	}
	if env.Error != "" {
		metrics.ObserveAPI(endpoint, "payload_error", time.Since(t0))
		log.Info("api payload error", zap.String("error", env.Error))
		return &PayloadError{Path: path, Message: env.Error}
	}
	metrics.ObserveAPI(endpoint, "ok", time.Since(t0))
	log.Debug("api ok", zap.Duration("took", time.Since(t0)))

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

// AuthResponse: ответ /api/login и /api/register.
type AuthResponse struct {
	User         models.User   `json:"user"`
	MatchedGroup *models.Group `json:"matched_group,omitempty"`
}

// Matched: группа из ответа или nil. Сервер присылает {} вместо null, если совпадения нет.
func (r AuthResponse) Matched() *models.Group {
	return matched(r.MatchedGroup)
}

func matched(g *models.Group) *models.Group {
	if g == nil || g.ID == 0 {
		return nil
	}
	return g
}

func (c *Client) Login(ctx context.Context, email string) (*AuthResponse, error) {
	var out AuthResponse
	in := map[string]string{"email": email}
	if err := c.do(ctx, "login", http.MethodPost, "/api/login", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, email, name string) (*AuthResponse, error) {
	var out AuthResponse
	in := map[string]string{"email": email, "name": name}
	if err := c.do(ctx, "register", http.MethodPost, "/api/register", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Groups(ctx context.Context) ([]models.Group, error) {
	var out struct {
		Groups []models.Group `json:"groups"`
	}
	if err := c.do(ctx, "groups", http.MethodGet, "/api/groups", nil, &out); err != nil {
		return nil, err
	}
	for i := range out.Groups {
		if out.Groups[i].Feedback == nil {
			out.Groups[i].Feedback = []models.Feedback{}
		}
	}
	if out.Groups == nil {
		return []models.Group{}, nil
	}
	return out.Groups, nil
}

func (c *Client) SkillMatchStats(ctx context.Context) (models.SkillStats, error) {
	var out models.SkillStats
	err := c.do(ctx, "skill_match_stats", http.MethodGet, "/api/skill-match-stats", nil, &out)
	return out, err
}

func (c *Client) SkillDistribution(ctx context.Context) ([]models.SkillCount, error) {
	var out struct {
		Skills []models.SkillCount `json:"skills"`
	}
	if err := c.do(ctx, "skill_distribution", http.MethodGet, "/api/skill-distribution", nil, &out); err != nil {
		return nil, err
	}
	if out.Skills == nil {
		return []models.SkillCount{}, nil
	}
	return out.Skills, nil
}

// ReinitializeGroups: серверный пересчёт состава групп; тело ответа не интересует.
func (c *Client) ReinitializeGroups(ctx context.Context) error {
	return c.do(ctx, "reinitialize_groups", http.MethodPost, "/api/reinitialize-groups", nil, nil)
}

// ProfileUpdate: тело POST /api/profile ({...profile, id, updateSkills}).
type ProfileUpdate struct {
	models.Profile
	UpdateSkills bool `json:"updateSkills"`
}

func (c *Client) UpdateProfile(ctx context.Context, upd ProfileUpdate) (*models.Group, error) {
	var out struct {
		MatchedGroup *models.Group `json:"matched_group,omitempty"`
	}
	if err := c.do(ctx, "profile", http.MethodPost, "/api/profile", upd, &out); err != nil {
		return nil, err
	}
	return matched(out.MatchedGroup), nil
}

type FeedbackRequest struct {
	Feedback string `json:"feedback"`
	Rating   *int   `json:"rating,omitempty"`
	UserID   int64  `json:"userId"`
}

func (c *Client) SubmitFeedback(ctx context.Context, groupID int64, req FeedbackRequest) (models.Feedback, error) {
	var out struct {
		Feedback models.Feedback `json:"feedback"`
	}
	path := "/api/feedback/" + strconv.FormatInt(groupID, 10)
	if err := c.do(ctx, "feedback", http.MethodPost, path, req, &out); err != nil {
		return models.Feedback{}, err
	}
	return out.Feedback, nil
}

func (c *Client) Schedules(ctx context.Context, groupID int64) ([]models.Schedule, error) {
	var out struct {
		Schedules []models.Schedule `json:"schedules"`
	}
	q := url.Values{"groupId": {strconv.FormatInt(groupID, 10)}}
	if err := c.do(ctx, "schedules", http.MethodGet, "/api/schedules?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	if out.Schedules == nil {
		return []models.Schedule{}, nil
	}
	return out.Schedules, nil
}

func (c *Client) AddSchedule(ctx context.Context, s models.NewSchedule) error {
	return c.do(ctx, "schedule", http.MethodPost, "/api/schedule", s, nil)
}
