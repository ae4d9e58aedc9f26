package models

type Feedback struct {
	ID        int64  `json:"id"`
	Content   string `json:"content"`
	Rating    *int   `json:"rating,omitempty"`
	UserID    int64  `json:"userId"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Group приходит целиком с сервера; локально к нему только дописывается feedback.
type Group struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	Members        []string   `json:"members"`
	MatchingSkills []string   `json:"matching_skills"`
	StudyTime      string     `json:"study_time"`
	Status         string     `json:"status"`
	Feedback       []Feedback `json:"feedback"`
}

// HasMember: совпадение имени без учёта регистра и пробелов по краям.
func (g Group) HasMember(name string) bool {
	want := NormalizeName(name)
	if want == "" {
		return false
	}
	for _, m := range g.Members {
		if NormalizeName(m) == want {
			return true
		}
	}
	return false
}

// AverageRating: средняя оценка по отзывам с рейтингом; ok=false, если оценок нет.
func (g Group) AverageRating() (avg float64, ok bool) {
	sum, n := 0, 0
	for _, f := range g.Feedback {
		if f.Rating != nil {
			sum += *f.Rating
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return float64(sum) / float64(n), true
}

type SkillStats struct {
	Grouped   int `json:"grouped"`
	Ungrouped int `json:"ungrouped"`
}

type SkillCount struct {
	Skill string `json:"skill"`
	Count int    `json:"count"`
}
