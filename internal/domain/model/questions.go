package model

// Question представляет вопрос модуля
type Question struct {
	ID            int64    `json:"id" db:"id"`
	ModuleID      int64    `json:"module_id" db:"module_id"`
	Title         string   `json:"title" db:"title"`
	Formula       string   `json:"formula" db:"formula"`
	Instruction   string   `json:"instruction" db:"instruction"`
	Options       []string `json:"options,omitempty" db:"-"`
	CorrectAnswer string   `json:"correct_answer" db:"correct_answer"`
}
