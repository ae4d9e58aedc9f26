package models

type Role string

const (
	Student    Role = "student"
	Instructor Role = "instructor"
)

func (r Role) Valid() bool {
	return r == Student || r == Instructor
}

// User: пользователь сессии в том виде, в каком его отдаёт /api/login и /api/register.
type User struct {
	ID           int64    `json:"id"`
	Email        string   `json:"email"`
	Name         string   `json:"name"`
	Role         Role     `json:"role"`
	Skills       []string `json:"skills,omitempty"`
	Interests    []string `json:"interests,omitempty"`
	Availability []string `json:"availability,omitempty"`
}

// Profile: анкета студента. Существует только при Role == Student.
type Profile struct {
	ID           int64    `json:"id"`
	Email        string   `json:"email"`
	Name         string   `json:"name"`
	Skills       []string `json:"skills"`
	Interests    []string `json:"interests"`
	Availability []string `json:"availability"`
	Role         Role     `json:"role"`
}

// ProfileFromUser строит нормализованную анкету из ответа логина/регистрации.
func ProfileFromUser(u User) Profile {
	return Profile{
		ID:           u.ID,
		Email:        u.Email,
		Name:         trimSpace(u.Name),
		Skills:       NormalizeSkills(u.Skills),
		Interests:    orEmpty(NormalizeList(u.Interests)),
		Availability: orEmpty(NormalizeList(u.Availability)),
		Role:         Student,
	}
}

// Normalized возвращает копию анкеты с нормализованными списками.
func (p Profile) Normalized() Profile {
	out := p
	out.Name = trimSpace(p.Name)
	out.Email = trimSpace(p.Email)
	out.Skills = NormalizeSkills(p.Skills)
	out.Interests = orEmpty(NormalizeList(p.Interests))
	out.Availability = orEmpty(NormalizeList(p.Availability))
	return out
}

func orEmpty(xs []string) []string {
	if xs == nil {
		return []string{}
	}
	return xs
}
