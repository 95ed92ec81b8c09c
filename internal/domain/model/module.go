package model

import "time"

// Module представляет модуль с практическими заданиями
type Module struct {
	ID              int64     `json:"id" db:"id"`
	Title           string    `json:"title" db:"title"`
	Description     string    `json:"description" db:"description"`
	TotalQuestions  int       `json:"total_questions" db:"total_questions"`
	DurationMinutes int       `json:"duration_minutes" db:"duration_minutes"`
	Difficulty      string    `json:"difficulty" db:"difficulty"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// DefaultDifficulty используется, если сложность модуля не указана
const DefaultDifficulty = "medium"

// DurationSeconds возвращает длительность модуля в секундах
func (m Module) DurationSeconds() int {
	if m.DurationMinutes < 0 {
		return 0
	}
	return m.DurationMinutes * 60
}
