package models

type Schedule struct {
	ID        int64  `json:"id"`
	GroupID   int64  `json:"groupId"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Location  string `json:"location,omitempty"`
	Agenda    string `json:"agenda,omitempty"`
}

// NewSchedule: тело POST /api/schedule.
type NewSchedule struct {
	GroupID   int64  `json:"groupId"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Location  string `json:"location,omitempty"`
	Agenda    string `json:"agenda,omitempty"`
}

// Trimmed убирает пробелы по краям у всех текстовых полей.
func (s NewSchedule) Trimmed() NewSchedule {
	s.Date = trimSpace(s.Date)
	s.StartTime = trimSpace(s.StartTime)
	s.EndTime = trimSpace(s.EndTime)
	s.Location = trimSpace(s.Location)
	s.Agenda = trimSpace(s.Agenda)
	return s
}
