package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Spok95/study-groups-bot/internal/ctxutil"
	"github.com/Spok95/study-groups-bot/internal/models"
)

type recorded struct {
	method string
	path   string
	query  string
	body   map[string]any
	header http.Header
}

func newServer(t *testing.T, status int, resp string, rec *recorded) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rec != nil {
			rec.method = r.Method
			rec.path = r.URL.Path
			rec.query = r.URL.RawQuery
			rec.header = r.Header.Clone()
			raw, _ := io.ReadAll(r.Body)
			rec.body = nil // Unmarshal дописывает ключи в существующую map
			if len(raw) > 0 {
				_ = json.Unmarshal(raw, &rec.body)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, resp)
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", 2*time.Second, nil)
}

func TestLogin(t *testing.T) {
	var rec recorded
	c := newServer(t, http.StatusOK, `{
		"user": {"id": 3, "email": "ana@x.io", "name": "Ana Lee", "role": "student", "skills": ["python"]},
		"matched_group": {"id": 1, "name": "G1", "members": ["ana lee"]}
	}`, &rec)

	resp, err := c.Login(context.Background(), "ana@x.io")
	if err != nil {
		t.Fatal(err)
	}
	if rec.method != http.MethodPost || rec.path != "/api/login" {
		t.Fatalf("unexpected request %s %s", rec.method, rec.path)
	}
	if rec.body["email"] != "ana@x.io" {
		t.Fatalf("body = %v", rec.body)
	}
	if _, ok := rec.body["name"]; ok {
		t.Fatal("login must not send a name")
	}
	if rec.header.Get("Content-Type") != "application/json" || rec.header.Get("X-Request-ID") == "" {
		t.Fatalf("headers = %v", rec.header)
	}
	if resp.User.Role != models.Student || resp.User.Name != "Ana Lee" {
		t.Fatalf("user = %+v", resp.User)
	}
	if g := resp.Matched(); g == nil || g.ID != 1 {
		t.Fatalf("matched = %+v", g)
	}
}

func TestEmptyMatchedGroupIsAbsent(t *testing.T) {
	c := newServer(t, http.StatusOK, `{"user": {"id": 1, "role": "student"}, "matched_group": {}}`, nil)
	resp, err := c.Register(context.Background(), "a@b.c", "A")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Matched() != nil {
		t.Fatal("empty matched_group must be treated as absent")
	}
}

func TestRequestIDFromContext(t *testing.T) {
	var rec recorded
	c := newServer(t, http.StatusOK, `{"groups": []}`, &rec)
	ctx := ctxutil.WithRequestID(context.Background(), "req-1")
	if _, err := c.Groups(ctx); err != nil {
		t.Fatal(err)
	}
	if got := rec.header.Get("X-Request-ID"); got != "req-1" {
		t.Fatalf("X-Request-ID = %q", got)
	}
}

func TestNonOKIsHTTPError(t *testing.T) {
	c := newServer(t, http.StatusNotFound, `{"error": "User not found"}`, nil)
	_, err := c.Login(context.Background(), "nobody@x.io")
	var he *HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected HTTPError, got %T %v", err, err)
	}
	if he.Status != http.StatusNotFound || he.Message != "User not found" {
		t.Fatalf("HTTPError = %+v", he)
	}
	if he.Server() {
		t.Fatal("404 is not a server error")
	}
	if !IsRejected(err) {
		t.Fatal("HTTPError must count as rejected")
	}
}

func TestNonJSONErrorBody(t *testing.T) {
	c := newServer(t, http.StatusBadGateway, `<html>bad gateway</html>`, nil)
	err := c.ReinitializeGroups(context.Background())
	var he *HTTPError
	if !errors.As(err, &he) || he.Status != http.StatusBadGateway || he.Message != "" {
		t.Fatalf("err = %v", err)
	}
	if he.Error() != "HTTP error! status: 502" {
		t.Fatalf("Error() = %q", he.Error())
	}
}

func TestPayloadErrorOn2xx(t *testing.T) {
	c := newServer(t, http.StatusOK, `{"error": "Valid email is required"}`, nil)
	_, err := c.Login(context.Background(), "")
	var pe *PayloadError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PayloadError, got %T %v", err, err)
	}
	if Message(err) != "Valid email is required" {
		t.Fatalf("Message = %q", Message(err))
	}
}

func TestTransportError(t *testing.T) {
	c := New("http://127.0.0.1:1", 200*time.Millisecond, nil)
	_, err := c.Groups(context.Background())
	if err == nil {
		t.Fatal("expected transport error")
	}
	if IsRejected(err) {
		t.Fatal("transport error is not a server rejection")
	}
}

func TestGroupsDefaults(t *testing.T) {
	c := newServer(t, http.StatusOK, `{"groups": [{"id": 1, "members": ["a"]}]}`, nil)
	groups, err := c.Groups(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 1 || groups[0].Feedback == nil {
		t.Fatalf("groups = %+v", groups)
	}

	c = newServer(t, http.StatusOK, `{}`, nil)
	groups, err = c.Groups(context.Background())
	if err != nil || groups == nil || len(groups) != 0 {
		t.Fatalf("missing groups must be empty, got %v %v", groups, err)
	}
}

func TestUpdateProfileBody(t *testing.T) {
	var rec recorded
	c := newServer(t, http.StatusOK, `{"message": "ok", "matched_group": {"id": 9}}`, &rec)
	p := models.Profile{ID: 5, Email: "a@b.c", Name: "A", Skills: []string{"go"}, Interests: []string{}, Availability: []string{"Mon"}, Role: models.Student}
	g, err := c.UpdateProfile(context.Background(), ProfileUpdate{Profile: p, UpdateSkills: true})
	if err != nil {
		t.Fatal(err)
	}
	if g == nil || g.ID != 9 {
		t.Fatalf("matched = %+v", g)
	}
	if rec.body["updateSkills"] != true || rec.body["id"] != float64(5) || rec.body["email"] != "a@b.c" {
		t.Fatalf("body = %v", rec.body)
	}
	skills, _ := rec.body["skills"].([]any)
	if len(skills) != 1 || skills[0] != "go" {
		t.Fatalf("skills = %v", rec.body["skills"])
	}
}

func TestSubmitFeedback(t *testing.T) {
	var rec recorded
	c := newServer(t, http.StatusOK, `{"feedback": {"id": 11, "content": "great", "rating": 5, "userId": 3}}`, &rec)
	rating := 5
	fb, err := c.SubmitFeedback(context.Background(), 4, FeedbackRequest{Feedback: "great", Rating: &rating, UserID: 3})
	if err != nil {
		t.Fatal(err)
	}
	if rec.path != "/api/feedback/4" {
		t.Fatalf("path = %s", rec.path)
	}
	if fb.ID != 11 || fb.Rating == nil || *fb.Rating != 5 {
		t.Fatalf("feedback = %+v", fb)
	}

	_, _ = c.SubmitFeedback(context.Background(), 4, FeedbackRequest{Feedback: "ok", UserID: 3})
	if _, ok := rec.body["rating"]; ok {
		t.Fatal("absent rating must be omitted")
	}
}

func TestSchedules(t *testing.T) {
	var rec recorded
	c := newServer(t, http.StatusOK, `{"schedules": [{"id": 1, "groupId": 2, "date": "2026-10-20", "startTime": "10:00", "endTime": "11:00"}]}`, &rec)
	list, err := c.Schedules(context.Background(), 2)
	if err != nil {
		t.Fatal(err)
	}
	if rec.path != "/api/schedules" || !strings.Contains(rec.query, "groupId=2") {
		t.Fatalf("request = %s?%s", rec.path, rec.query)
	}
	if len(list) != 1 || list[0].StartTime != "10:00" {
		t.Fatalf("list = %+v", list)
	}
}

func TestAddSchedule(t *testing.T) {
	var rec recorded
	c := newServer(t, http.StatusCreated, `{"message": "Schedule added successfully"}`, &rec)
	err := c.AddSchedule(context.Background(), models.NewSchedule{GroupID: 2, Date: "2026-10-20", StartTime: "10:00", EndTime: "11:00"})
	if err != nil {
		t.Fatal(err)
	}
	if rec.body["groupId"] != float64(2) || rec.body["date"] != "2026-10-20" {
		t.Fatalf("body = %v", rec.body)
	}
	if _, ok := rec.body["location"]; ok {
		t.Fatal("empty location must be omitted")
	}
}

func TestStatsAndDistribution(t *testing.T) {
	c := newServer(t, http.StatusOK, `{"grouped": 4, "ungrouped": 1}`, nil)
	st, err := c.SkillMatchStats(context.Background())
	if err != nil || st.Grouped != 4 || st.Ungrouped != 1 {
		t.Fatalf("stats = %+v, %v", st, err)
	}

	c = newServer(t, http.StatusOK, `{"skills": [{"skill": "python", "count": 3}]}`, nil)
	dist, err := c.SkillDistribution(context.Background())
	if err != nil || len(dist) != 1 || dist[0].Count != 3 {
		t.Fatalf("dist = %+v, %v", dist, err)
	}
}
