// Package importer загружает модули и вопросы из .xlsx, .csv и .json файлов.
package importer

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/IT-Nick/mathquiz/internal/domain/model"
	modulesService "github.com/IT-Nick/mathquiz/internal/domain/modules/service"
	"github.com/xuri/excelize/v2"
)

// OptionsSeparator разделяет варианты ответа в ячейке
const OptionsSeparator = ";"

var ErrUnsupportedFormat = errors.New("unsupported file format")

// Порядок колонок таблицы
const (
	colModuleTitle = iota
	colDescription
	colDifficulty
	colDuration
	colQuestionTitle
	colFormula
	colInstruction
	colCorrectAnswer
	colOptions
)

// Catalog создает модули и вопросы. Реализуется *service.ModuleService.
type Catalog interface {
	FindByTitle(ctx context.Context, title string) (*model.Module, error)
	Create(ctx context.Context, req modulesService.CreateModuleRequest) (*model.Module, error)
	CreateQuestion(ctx context.Context, q model.Question) (*model.Question, error)
}

// Config настройки импорта
type Config struct {
	FilePath  string // .xlsx, .csv или .json
	SheetName string // Лист таблицы, по умолчанию первый
	StartRow  int    // Первая строка с данными (с 1), по умолчанию 2: первая строка заголовок
}

// DefaultConfig возвращает настройки по умолчанию
func DefaultConfig() Config {
	return Config{StartRow: 2}
}

// Result итог импорта
type Result struct {
	Processed        int
	ModulesCreated   int
	QuestionsCreated int
	Skipped          int
	Errors           []string
}

// draft модуль, собранный из строк файла до записи в хранилище
type draft struct {
	module    modulesService.CreateModuleRequest
	questions []model.Question
}

// Import читает файл и создает модули, которых еще нет. Модуль с уже существующим
// названием пропускается вместе с вопросами.
func Import(ctx context.Context, catalog Catalog, cfg Config) (*Result, error) {
	result := &Result{Errors: make([]string, 0)}

	var (
		drafts []*draft
		err    error
	)
	switch ext := strings.ToLower(filepath.Ext(cfg.FilePath)); ext {
	case ".xlsx":
		drafts, err = readExcel(cfg, result)
	case ".csv":
		drafts, err = readCSV(cfg, result)
	case ".json":
		drafts, err = readJSON(cfg, result)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}

	for _, d := range drafts {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := store(ctx, catalog, d, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Module %q: %v", d.module.Title, err))
		}
	}
	return result, nil
}

func store(ctx context.Context, catalog Catalog, d *draft, result *Result) error {
	existing, err := catalog.FindByTitle(ctx, d.module.Title)
	if err != nil {
		return err
	}
	if existing != nil {
		result.Skipped++
		return nil
	}
	if len(d.questions) == 0 {
		return fmt.Errorf("module has no questions")
	}

	d.module.TotalQuestions = len(d.questions)
	m, err := catalog.Create(ctx, d.module)
	if err != nil {
		return err
	}
	result.ModulesCreated++

	for i, q := range d.questions {
		q.ModuleID = m.ID
		if _, err := catalog.CreateQuestion(ctx, q); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Module %q question %d: %v", m.Title, i+1, err))
			continue
		}
		result.QuestionsCreated++
	}
	return nil
}

func readExcel(cfg Config, result *Result) ([]*draft, error) {
	f, err := excelize.OpenFile(cfg.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("close: %v", err))
		}
	}()

	sheet := cfg.SheetName
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}

	g := newGrouper()
	for i, row := range rows {
		if i < startRow(cfg)-1 || blank(row) {
			continue
		}
		result.Processed++
		if err := g.add(row); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
		}
	}
	return g.drafts, nil
}

func readCSV(cfg Config, result *Result) ([]*draft, error) {
	file, err := os.Open(cfg.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	g := newGrouper()
	rowNum := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rowNum++

		if rowNum < startRow(cfg) || blank(row) {
			continue
		}
		result.Processed++
		if err := g.add(row); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
		}
	}
	return g.drafts, nil
}

type jsonQuestion struct {
	Title         string   `json:"title"`
	Formula       string   `json:"formula"`
	Instruction   string   `json:"instruction"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
}

type jsonModule struct {
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	Difficulty      string         `json:"difficulty"`
	DurationMinutes int            `json:"duration_minutes"`
	Questions       []jsonQuestion `json:"questions"`
}

func readJSON(cfg Config, result *Result) ([]*draft, error) {
	data, err := os.ReadFile(cfg.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON file: %w", err)
	}
	var modules []jsonModule
	if err := json.Unmarshal(data, &modules); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	drafts := make([]*draft, 0, len(modules))
	for i, m := range modules {
		d := &draft{module: modulesService.CreateModuleRequest{
			Title:           strings.TrimSpace(m.Title),
			Description:     m.Description,
			Difficulty:      m.Difficulty,
			DurationMinutes: m.DurationMinutes,
		}}
		if d.module.Title == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("Module %d: title cannot be empty", i+1))
			continue
		}

		for j, q := range m.Questions {
			result.Processed++
			question, err := newQuestion(q.Title, q.Formula, q.Instruction, q.CorrectAnswer, q.Options)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("Module %q question %d: %v", d.module.Title, j+1, err))
				continue
			}
			d.questions = append(d.questions, question)
		}
		drafts = append(drafts, d)
	}
	return drafts, nil
}

// grouper собирает строки таблицы в модули по названию в порядке первого появления
type grouper struct {
	drafts  []*draft
	byTitle map[string]*draft
}

func newGrouper() *grouper {
	return &grouper{byTitle: make(map[string]*draft)}
}

func (g *grouper) add(row []string) error {
	title := cell(row, colModuleTitle)
	if title == "" {
		return fmt.Errorf("module title cannot be empty")
	}

	key := strings.ToLower(title)
	d, ok := g.byTitle[key]
	if !ok {
		d = &draft{module: modulesService.CreateModuleRequest{Title: title}}
		g.byTitle[key] = d
		g.drafts = append(g.drafts, d)
	}

	// описание модуля берется из первой строки, где оно заполнено
	if d.module.Description == "" {
		d.module.Description = cell(row, colDescription)
	}
	if d.module.Difficulty == "" {
		d.module.Difficulty = cell(row, colDifficulty)
	}
	if raw := cell(row, colDuration); raw != "" && d.module.DurationMinutes == 0 {
		minutes, err := strconv.Atoi(raw)
		if err != nil || minutes <= 0 {
			return fmt.Errorf("invalid duration_minutes %q", raw)
		}
		d.module.DurationMinutes = minutes
	}

	var options []string
	if raw := cell(row, colOptions); raw != "" {
		for _, o := range strings.Split(raw, OptionsSeparator) {
			if o = strings.TrimSpace(o); o != "" {
				options = append(options, o)
			}
		}
	}

	q, err := newQuestion(cell(row, colQuestionTitle), cell(row, colFormula), cell(row, colInstruction), cell(row, colCorrectAnswer), options)
	if err != nil {
		return err
	}
	d.questions = append(d.questions, q)
	return nil
}

func newQuestion(title, formula, instruction, correct string, options []string) (model.Question, error) {
	title, correct = strings.TrimSpace(title), strings.TrimSpace(correct)
	switch {
	case title == "":
		return model.Question{}, fmt.Errorf("question title cannot be empty")
	case correct == "":
		return model.Question{}, fmt.Errorf("correct answer cannot be empty")
	}
	return model.Question{
		Title:         title,
		Formula:       strings.TrimSpace(formula),
		Instruction:   strings.TrimSpace(instruction),
		Options:       options,
		CorrectAnswer: correct,
	}, nil
}

func cell(row []string, idx int) string {
	if idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func startRow(cfg Config) int {
	if cfg.StartRow < 1 {
		return 1
	}
	return cfg.StartRow
}
