// Package session хранит состояние одного чата: кто вошёл, анкета, группы, статистика и единственный слот сообщения.
// Состояние неизменяемо: каждое внешнее событие превращается в новое значение через Reduce.
package session

import "github.com/Spok95/study-groups-bot/internal/models"

type NoticeKind int

const (
	NoticeError NoticeKind = iota + 1
	NoticeWarning
)

// Notice: единственный слот сообщения для пользователя (ошибка или подсказка).
type Notice struct {
	ID   uint64
	Kind NoticeKind
	Text string
}

// AuthForm: поля формы входа/регистрации.
type AuthForm struct {
	Email       string
	Name        string
	Registering bool
}

type FeedbackDraft struct {
	Text   string
	Rating *int
}

// ScheduleView: расписание одной группы со своим слотом ошибки.
type ScheduleView struct {
	Items  []models.Schedule
	Error  string
	Loaded bool
}

type State struct {
	User              *models.User
	Profile           *models.Profile
	Groups            []models.Group
	SkillStats        models.SkillStats
	SkillDistribution []models.SkillCount
	Form              AuthForm
	Loading           bool
	Notice            *Notice
	Drafts            map[int64]FeedbackDraft
	Schedules         map[int64]ScheduleView

	noticeSeq uint64
}

// Initial: состояние «никто не вошёл».
func Initial() State {
	return State{
		Groups:            []models.Group{},
		SkillDistribution: []models.SkillCount{},
		Drafts:            map[int64]FeedbackDraft{},
		Schedules:         map[int64]ScheduleView{},
	}
}

func (s State) LoggedIn() bool { return s.User != nil }

func (s State) Role() models.Role {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}

func (s State) IsStudent() bool { return s.Role() == models.Student && s.Profile != nil }

func (s State) IsInstructor() bool { return s.Role() == models.Instructor }

// MyGroups: группы, видимые студенту (см. MatchedGroups).
func (s State) MyGroups() []models.Group {
	return MatchedGroups(s.Profile, s.Groups)
}

// Group ищет группу по id в текущем списке.
func (s State) Group(id int64) (models.Group, bool) {
	for _, g := range s.Groups {
		if g.ID == id {
			return g, true
		}
	}
	return models.Group{}, false
}

// MatchedGroups: группы, в списке участников которых есть имя студента
// (сравнение без учёта регистра и пробелов по краям). Настоящий подбор по навыкам делает сервер.
func MatchedGroups(p *models.Profile, groups []models.Group) []models.Group {
	out := []models.Group{}
	if p == nil {
		return out
	}
	for _, g := range groups {
		if g.HasMember(p.Name) {
			out = append(out, g)
		}
	}
	return out
}

func noticeID(n *Notice) uint64 {
	if n == nil {
		return 0
	}
	return n.ID
}
