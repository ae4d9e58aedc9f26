package controller

import (
	"time"

	"github.com/Spok95/study-groups-bot/internal/models"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// validateSchedule возвращает текст ошибки для пользователя или "".
func validateSchedule(s models.NewSchedule) string {
	if s.GroupID == 0 {
		return "Group is required."
	}
	if s.Date == "" || s.StartTime == "" || s.EndTime == "" {
		return "Date, start time and end time are required."
	}
	if _, err := time.Parse(DateLayout, s.Date); err != nil {
		return "Date must be in YYYY-MM-DD format."
	}
	start, err1 := time.Parse(TimeLayout, s.StartTime)
	end, err2 := time.Parse(TimeLayout, s.EndTime)
	if err1 != nil || err2 != nil {
		return "Times must be in HH:MM format."
	}
	if !end.After(start) {
		return "End time must be after start time."
	}
	return ""
}
