package model

import (
	"errors"
	"time"
)

// ErrMalformedPayload запись прогресса не удалось разобрать. Такая запись считается отсутствующей.
var ErrMalformedPayload = errors.New("malformed payload")

// Status статус прохождения модуля пользователем.
// Отсутствие записи прогресса означает, что модуль не начат.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusPaused     Status = "paused"
	StatusCompleted  Status = "completed"
)

// Valid сообщает, является ли статус одним из допустимых для записи
func (s Status) Valid() bool {
	switch s {
	case StatusInProgress, StatusPaused, StatusCompleted:
		return true
	}
	return false
}

// Progress запись прогресса пользователя по модулю. Пара (UserID, ModuleID) уникальна.
type Progress struct {
	ID               int64      `json:"id" db:"id"`
	UserID           int64      `json:"user_id" db:"user_id"`
	ModuleID         int64      `json:"module_id" db:"module_id"`
	Status           Status     `json:"status" db:"status"`
	RemainingSeconds int        `json:"remaining_seconds" db:"remaining_seconds"`
	RightAnswer      *int       `json:"right_answer" db:"right_answer"`
	WrongAnswer      *int       `json:"wrong_answer" db:"wrong_answer"`
	StartedAt        *time.Time `json:"started_at" db:"started_at"`
	CompletedAt      *time.Time `json:"completed_at" db:"completed_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
	Version          int        `json:"version" db:"version"`
}

// Completed сообщает, находится ли запись в терминальном состоянии
func (p *Progress) Completed() bool {
	return p != nil && p.Status == StatusCompleted
}

// ProgressUpdate изменение прогресса, отправляемое клиентом сервису
type ProgressUpdate struct {
	Status           Status `json:"status"`
	RemainingSeconds int    `json:"remaining_seconds"`
	RightAnswer      *int   `json:"right_answer,omitempty"`
	WrongAnswer      *int   `json:"wrong_answer,omitempty"`
}
