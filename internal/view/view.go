// Package view рисует текстовые экраны для Telegram: студент, преподаватель, карточка группы, расписание.
// Функции чистые: на вход снимок session.State, на выход текст сообщения.
package view

import (
	"fmt"
	"strings"

	"github.com/Spok95/study-groups-bot/internal/models"
	"github.com/Spok95/study-groups-bot/internal/session"
)

const (
	NoGroupsStudent    = "No groups available. Update your profile with skills like python, javascript, or java."
	NoGroupsInstructor = "No groups formed yet."
	NoSchedules        = "No sessions scheduled."
	LoadingGroups      = "⏳ Loading groups..."
)

// Notice: текст слота сообщения; уходит отдельным сообщением, чтобы подсказку можно было удалить по таймеру.
// Пустая строка, если слот свободен.
func Notice(n *session.Notice) string {
	if n == nil {
		return ""
	}
	if n.Kind == session.NoticeWarning {
		return "⚠️ " + n.Text
	}
	return "❌ " + n.Text
}

func Profile(p models.Profile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "👤 %s\n", orNA(p.Name))
	fmt.Fprintf(&b, "✉️ %s\n", orNA(p.Email))
	fmt.Fprintf(&b, "🛠 Skills: %s\n", joinOrNA(p.Skills))
	fmt.Fprintf(&b, "💡 Interests: %s\n", joinOrNA(p.Interests))
	fmt.Fprintf(&b, "🕒 Availability: %s", joinOrNA(p.Availability))
	return b.String()
}

// StudentHome: приветствие, анкета и «Recommended Groups» (только группы, где студент в составе).
func StudentHome(st session.State) string {
	if st.Profile == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Welcome, %s\n\n", st.Profile.Name)
	b.WriteString(Profile(*st.Profile))
	b.WriteString("\n\n📚 Recommended Groups\n")

	mine := st.MyGroups()
	switch {
	case st.Loading:
		b.WriteString(LoadingGroups)
	case len(st.Groups) == 0:
		b.WriteString(NoGroupsStudent)
	case len(mine) == 0:
		b.WriteString("—")
	default:
		for _, g := range mine {
			fmt.Fprintf(&b, "▫️ %s (%d members)\n", groupTitle(g), len(g.Members))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// InstructorHome: статистика, гистограмма навыков и список всех групп.
func InstructorHome(st session.State) string {
	var b strings.Builder
	b.WriteString("🎓 Instructor Dashboard\n\n")
	b.WriteString("📊 Skill Match Stats\n")
	fmt.Fprintf(&b, "Grouped Students: %d\n", st.SkillStats.Grouped)
	fmt.Fprintf(&b, "Ungrouped Students: %d\n\n", st.SkillStats.Ungrouped)
	b.WriteString("📈 Skill Distribution\n")
	if chart := SkillChart(st.SkillDistribution, 20); chart != "" {
		b.WriteString(chart)
		b.WriteString("\n")
	} else {
		b.WriteString("—\n")
	}
	b.WriteString("\n📚 Study Groups\n")
	switch {
	case st.Loading:
		b.WriteString(LoadingGroups)
	case len(st.Groups) == 0:
		b.WriteString(NoGroupsInstructor)
	default:
		for _, g := range st.Groups {
			fmt.Fprintf(&b, "▫️ %s: %s\n", groupTitle(g), strings.Join(g.Members, ", "))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// GroupCard: подробности группы с отзывами.
func GroupCard(g models.Group) string {
	var b strings.Builder
	fmt.Fprintf(&b, "👥 %s\n", groupTitle(g))
	fmt.Fprintf(&b, "Members: %s\n", joinOrNA(g.Members))
	fmt.Fprintf(&b, "Skills: %s\n", joinOrNA(g.MatchingSkills))
	fmt.Fprintf(&b, "Study Time: %s", orNA(g.StudyTime))
	if g.Status != "" {
		fmt.Fprintf(&b, "\nStatus: %s", g.Status)
	}
	if avg, ok := g.AverageRating(); ok {
		fmt.Fprintf(&b, "\nRating: %.1f/5", avg)
	}
	if len(g.Feedback) > 0 {
		b.WriteString("\n\nFeedback:")
		for _, f := range g.Feedback {
			b.WriteString("\n• " + f.Content)
			if f.Rating != nil {
				fmt.Fprintf(&b, " (%d/5)", *f.Rating)
			}
		}
	}
	return b.String()
}

// Schedules: «Group Schedules» одной группы со своим слотом ошибки.
func Schedules(g models.Group, v session.ScheduleView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🗓 Group Schedules: %s\n", groupTitle(g))
	if len(v.Items) == 0 {
		b.WriteString(NoSchedules)
	}
	for i, s := range v.Items {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "\nDate: %s\n", s.Date)
		fmt.Fprintf(&b, "Time: %s - %s\n", s.StartTime, s.EndTime)
		fmt.Fprintf(&b, "Location: %s\n", orNA(s.Location))
		fmt.Fprintf(&b, "Agenda: %s", orNA(s.Agenda))
	}
	if v.Error != "" {
		b.WriteString("\n\n❌ " + v.Error)
	}
	return b.String()
}

// SkillChart: горизонтальная гистограмма; самая длинная полоса равна width символам.
func SkillChart(dist []models.SkillCount, width int) string {
	if len(dist) == 0 || width <= 0 {
		return ""
	}
	maxCount, label := 0, 0
	for _, s := range dist {
		if s.Count > maxCount {
			maxCount = s.Count
		}
		if n := len([]rune(s.Skill)); n > label {
			label = n
		}
	}
	lines := make([]string, 0, len(dist))
	for _, s := range dist {
		bar := 0
		if maxCount > 0 {
			bar = s.Count * width / maxCount
		}
		if s.Count > 0 && bar == 0 {
			bar = 1
		}
		pad := strings.Repeat(" ", label-len([]rune(s.Skill)))
		lines = append(lines, fmt.Sprintf("%s%s %s %d", s.Skill, pad, strings.Repeat("█", bar), s.Count))
	}
	return strings.Join(lines, "\n")
}

func groupTitle(g models.Group) string {
	if g.Name != "" {
		return g.Name
	}
	return fmt.Sprintf("Group #%d", g.ID)
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

func joinOrNA(xs []string) string {
	return orNA(strings.Join(xs, ", "))
}
