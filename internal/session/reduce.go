package session

import (
	"strings"

	"github.com/Spok95/study-groups-bot/internal/models"
)

const MismatchWarning = "No groups match your skills. Try adding skills like python, javascript, or java."

type Event interface{ isEvent() }

type ProfileField string

const (
	FieldName         ProfileField = "name"
	FieldEmail        ProfileField = "email"
	FieldSkills       ProfileField = "skills"
	FieldInterests    ProfileField = "interests"
	FieldAvailability ProfileField = "availability"
)

func (f ProfileField) Valid() bool {
	switch f {
	case FieldName, FieldEmail, FieldSkills, FieldInterests, FieldAvailability:
		return true
	}
	return false
}

type (
	AuthFormChanged struct {
		Email       string
		Name        string
		Registering bool
	}
	LoadingChanged struct{ Loading bool }
	// LoginStarted сбрасывает слот сообщения и включает загрузку.
	LoginStarted   struct{}
	LoginSucceeded struct {
		User         models.User
		MatchedGroup *models.Group
	}
	GroupsFetched       struct{ Groups []models.Group }
	StatsFetched        struct{ Stats models.SkillStats }
	DistributionFetched struct{ Skills []models.SkillCount }
	ProfileFieldEdited  struct {
		Field ProfileField
		Raw   string
	}
	ProfileSaved         struct{ MatchedGroup *models.Group }
	FeedbackDraftChanged struct {
		GroupID int64
		Text    string
		Rating  *int
	}
	FeedbackAdded struct {
		GroupID int64
		Entry   models.Feedback
	}
	SchedulesFetched struct {
		GroupID int64
		Items   []models.Schedule
	}
	ScheduleFailed struct {
		GroupID int64
		Message string
	}
	Failed struct{ Message string }
	// NoticeCleared с ID==0 очищает слот безусловно, иначе: только если там всё ещё это сообщение.
	NoticeCleared struct{ ID uint64 }
	LoggedOut     struct{}
)

func (AuthFormChanged) isEvent()      {}
func (LoadingChanged) isEvent()       {}
func (LoginStarted) isEvent()         {}
func (LoginSucceeded) isEvent()       {}
func (GroupsFetched) isEvent()        {}
func (StatsFetched) isEvent()         {}
func (DistributionFetched) isEvent()  {}
func (ProfileFieldEdited) isEvent()   {}
func (ProfileSaved) isEvent()         {}
func (FeedbackDraftChanged) isEvent() {}
func (FeedbackAdded) isEvent()        {}
func (SchedulesFetched) isEvent()     {}
func (ScheduleFailed) isEvent()       {}
func (Failed) isEvent()               {}
func (NoticeCleared) isEvent()        {}
func (LoggedOut) isEvent()            {}

// Reduce: чистый переход состояния. Исходное значение не меняется, изменяемые срезы и map копируются.
func Reduce(s State, e Event) State {
	switch e := e.(type) {
	case AuthFormChanged:
		s.Form = AuthForm(e)

	case LoadingChanged:
		s.Loading = e.Loading

	case LoginStarted:
		s.Notice = nil
		s.Loading = true

	case LoginSucceeded:
		u := e.User
		s.User = &u
		s.Profile = nil
		if u.Role == models.Student {
			p := models.ProfileFromUser(u)
			s.Profile = &p
			if e.MatchedGroup != nil {
				s.Groups = []models.Group{*e.MatchedGroup}
			}
		}
		s.Form = AuthForm{}

	case GroupsFetched:
		s.Groups = cloneGroups(e.Groups)
		if s.IsStudent() {
			if len(MatchedGroups(s.Profile, s.Groups)) == 0 {
				s = withNotice(s, NoticeWarning, MismatchWarning)
			} else {
				s.Notice = nil
			}
		}

	case StatsFetched:
		s.SkillStats = e.Stats

	case DistributionFetched:
		s.SkillDistribution = append([]models.SkillCount{}, e.Skills...)

	case ProfileFieldEdited:
		if s.Profile == nil {
			return s
		}
		p := *s.Profile
		switch e.Field {
		case FieldName:
			p.Name = strings.TrimSpace(e.Raw)
		case FieldEmail:
			p.Email = strings.TrimSpace(e.Raw)
		case FieldSkills:
			p.Skills = models.NormalizeSkills(models.SplitList(e.Raw))
		case FieldInterests:
			p.Interests = models.SplitList(e.Raw)
		case FieldAvailability:
			p.Availability = models.SplitList(e.Raw)
		default:
			return s
		}
		s.Profile = &p

	case ProfileSaved:
		if s.Profile != nil {
			p := s.Profile.Normalized()
			s.Profile = &p
		}
		if e.MatchedGroup != nil {
			s.Groups = []models.Group{*e.MatchedGroup}
		}

	case FeedbackDraftChanged:
		s.Drafts = cloneDrafts(s.Drafts)
		s.Drafts[e.GroupID] = FeedbackDraft{Text: e.Text, Rating: e.Rating}

	case FeedbackAdded:
		groups := make([]models.Group, len(s.Groups))
		copy(groups, s.Groups)
		for i, g := range groups {
			if g.ID == e.GroupID {
				fb := make([]models.Feedback, 0, len(g.Feedback)+1)
				fb = append(fb, g.Feedback...)
				groups[i].Feedback = append(fb, e.Entry)
			}
		}
		s.Groups = groups
		s.Drafts = cloneDrafts(s.Drafts)
		delete(s.Drafts, e.GroupID)

	case SchedulesFetched:
		s.Schedules = cloneSchedules(s.Schedules)
		s.Schedules[e.GroupID] = ScheduleView{Items: append([]models.Schedule{}, e.Items...), Loaded: true}

	case ScheduleFailed:
		s.Schedules = cloneSchedules(s.Schedules)
		v := s.Schedules[e.GroupID]
		v.Error = e.Message
		s.Schedules[e.GroupID] = v

	case Failed:
		s = withNotice(s, NoticeError, e.Message)

	case NoticeCleared:
		if e.ID == 0 || noticeID(s.Notice) == e.ID {
			s.Notice = nil
		}

	case LoggedOut:
		seq := s.noticeSeq
		s = Initial()
		s.noticeSeq = seq
	}
	return s
}

// withNotice занимает слот новым сообщением; старое (и его таймер) вытесняется.
func withNotice(s State, kind NoticeKind, text string) State {
	s.noticeSeq++
	s.Notice = &Notice{ID: s.noticeSeq, Kind: kind, Text: text}
	return s
}

func cloneGroups(in []models.Group) []models.Group {
	if in == nil {
		return []models.Group{}
	}
	out := make([]models.Group, len(in))
	copy(out, in)
	return out
}

func cloneDrafts(in map[int64]FeedbackDraft) map[int64]FeedbackDraft {
	out := make(map[int64]FeedbackDraft, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneSchedules(in map[int64]ScheduleView) map[int64]ScheduleView {
	out := make(map[int64]ScheduleView, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}
