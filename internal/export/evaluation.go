package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/study-groups-bot/internal/session"
)

const (
	SheetGroups = "Groups"
	SheetSkills = "Skills"
	SheetStats  = "Stats"
)

// BuildEvaluationWorkbook собирает выгрузку экрана преподавателя: все группы, распределение навыков
// (с гистограммой) и счётчики распределённых/нераспределённых студентов.
func BuildEvaluationWorkbook(st session.State) (*Workbook, error) {
	groups := make([][]any, 0, len(st.Groups))
	for _, g := range st.Groups {
		avg := ""
		if v, ok := g.AverageRating(); ok {
			avg = fmt.Sprintf("%.1f", v)
		}
		groups = append(groups, []any{
			g.ID,
			g.Name,
			strings.Join(g.Members, ", "),
			strings.Join(g.MatchingSkills, ", "),
			g.StudyTime,
			g.Status,
			len(g.Feedback),
			avg,
		})
	}

	skills := make([][]any, 0, len(st.SkillDistribution))
	for _, s := range st.SkillDistribution {
		skills = append(skills, []any{s.Skill, s.Count})
	}

	wb, err := NewWorkbook([]SheetSpec{
		{
			Title:  SheetGroups,
			Header: []string{"ID", "Name", "Members", "Matching skills", "Study time", "Status", "Feedback", "Avg rating"},
			Rows:   groups,
		},
		{
			Title:  SheetSkills,
			Header: []string{"Skill", "Students"},
			Rows:   skills,
		},
		{
			Title:  SheetStats,
			Header: []string{"Metric", "Students"},
			Rows: [][]any{
				{"Grouped", st.SkillStats.Grouped},
				{"Ungrouped", st.SkillStats.Ungrouped},
			},
		},
	})
	if err != nil {
		return nil, err
	}

	if len(skills) > 0 {
		if err := addSkillChart(wb.File, len(skills)); err != nil {
			return nil, fmt.Errorf("skill chart: %w", err)
		}
	}
	return wb, nil
}

// addSkillChart: столбчатая диаграмма по листу Skills справа от таблицы.
func addSkillChart(f *excelize.File, n int) error {
	last := n + 1
	return f.AddChart(SheetSkills, "D2", &excelize.Chart{
		Type: excelize.Col,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("%s!$B$1", SheetSkills),
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", SheetSkills, last),
			Values:     fmt.Sprintf("%s!$B$2:$B$%d", SheetSkills, last),
		}},
		Title:  []excelize.RichTextRun{{Text: "Skill distribution"}},
		Legend: excelize.ChartLegend{Position: "none"},
		Dimension: excelize.ChartDimension{
			Width:  640,
			Height: 360,
		},
	})
}
