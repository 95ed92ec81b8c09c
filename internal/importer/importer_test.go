package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	modulesRepo "github.com/IT-Nick/mathquiz/internal/domain/modules/repository"
	modulesService "github.com/IT-Nick/mathquiz/internal/domain/modules/service"
	"github.com/xuri/excelize/v2"
)

var header = []interface{}{"module", "description", "difficulty", "duration_minutes", "question", "formula", "instruction", "correct_answer", "options"}

func newCatalog() *modulesService.ModuleService {
	return modulesService.NewModuleService(modulesRepo.NewMemoryRepository())
}

func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		addr, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		row := row
		if err := f.SetSheetRow("Sheet1", addr, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}

	path := filepath.Join(t.TempDir(), "modules.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	return path
}

func TestImport_Excel(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		header,
		{"Дроби", "Сложение дробей", "easy", 5, "Сложите", "1/2 + 1/4", "Несократимая дробь", "3/4", ""},
		{"Дроби", "", "", "", "Выберите", "1/3 + 1/3", "", "2/3", "1/3; 2/3; 1"},
		{"Производные", "", "hard", 10, "Найдите производную", "x^2", "", "2x", ""},
		{"Производные", "", "", "", "", "x^3", "", "3x^2", ""},
	})
	catalog := newCatalog()
	ctx := context.Background()

	cfg := DefaultConfig()
	cfg.FilePath = path
	res, err := Import(ctx, catalog, cfg)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Processed != 4 || res.ModulesCreated != 2 || res.QuestionsCreated != 3 || len(res.Errors) != 1 {
		t.Fatalf("Неожиданный результат: %+v", res)
	}
	if !strings.Contains(res.Errors[0], "Row 5") {
		t.Errorf("Ошибка должна указывать строку: %s", res.Errors[0])
	}

	m, err := catalog.FindByTitle(ctx, "Дроби")
	if err != nil || m == nil {
		t.Fatalf("Модуль должен быть создан: %v", err)
	}
	if m.TotalQuestions != 2 || m.DurationMinutes != 5 || m.Difficulty != "easy" || m.Description != "Сложение дробей" {
		t.Fatalf("Неожиданный модуль: %+v", m)
	}
	questions, err := catalog.Questions(ctx, m.ID)
	if err != nil || len(questions) != 2 {
		t.Fatalf("Ожидалось 2 вопроса, получено %d (%v)", len(questions), err)
	}
	if got := questions[1].Options; len(got) != 3 || got[1] != "2/3" {
		t.Fatalf("Неожиданные варианты: %v", got)
	}

	again, err := Import(ctx, catalog, cfg)
	if err != nil {
		t.Fatalf("Повторный Import: %v", err)
	}
	if again.Skipped != 2 || again.ModulesCreated != 0 {
		t.Fatalf("Повторный импорт пропускает существующие модули: %+v", again)
	}
}

func TestImport_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modules.csv")
	content := "module,description,difficulty,duration_minutes,question,formula,instruction,correct_answer,options\n" +
		"Пределы,,medium,15,Найдите предел,lim sin(x)/x,,1,\n" +
		"\n" +
		"Пределы,,,abc,Найдите предел,lim 1/x,,0,\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	catalog := newCatalog()
	res, err := Import(context.Background(), catalog, Config{FilePath: path, StartRow: 2})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Processed != 2 || res.ModulesCreated != 1 || res.QuestionsCreated != 2 || len(res.Errors) != 0 {
		t.Fatalf("Неожиданный результат: %+v", res)
	}
}

func TestImport_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modules.json")
	content := `[
  {"title": "Интегралы", "duration_minutes": 20, "questions": [
    {"title": "Вычислите", "formula": "∫ 2x dx", "correct_answer": "x^2 + C"},
    {"title": "Без ответа"}
  ]},
  {"title": "Пустой", "duration_minutes": 5, "questions": []}
]`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	catalog := newCatalog()
	res, err := Import(context.Background(), catalog, Config{FilePath: path})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Processed != 2 || res.ModulesCreated != 1 || res.QuestionsCreated != 1 || len(res.Errors) != 2 {
		t.Fatalf("Неожиданный результат: %+v", res)
	}
	m, _ := catalog.FindByTitle(context.Background(), "Интегралы")
	if m == nil || m.TotalQuestions != 1 || m.Difficulty != "medium" {
		t.Fatalf("Неожиданный модуль: %+v", m)
	}
}

func TestImport_UnsupportedFormat(t *testing.T) {
	_, err := Import(context.Background(), newCatalog(), Config{FilePath: "modules.txt"})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("Ожидалась ErrUnsupportedFormat, получено %v", err)
	}
}
