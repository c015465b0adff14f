package birthday

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	logx "bdaybot/pkg/logx"
)

func writeWorkbook(t *testing.T, path string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	head := []any{"#", "Фамилия", "Имя", "Отчество", "Дата рождения"}
	for i, v := range head {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			t.Fatalf("SetCellValue header: %v", err)
		}
	}

	rows := [][]any{
		{1, "Ivanov", "Ivan", "Ivanovich", "01.01.1990"},
		{2, "Petrov", "Petr", "Petrovich", "15.06"},
		{3, "Sidorov", "Sidr", "Sidorovich", time.Date(1985, time.January, 1, 0, 0, 0, 0, time.UTC)},
		{4, "Nobody", "No", "Birth", ""},
	}
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				t.Fatalf("SetCellValue row %d: %v", r, err)
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
}

func TestXLSXSourceList(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "birthday_data.xlsx")
	writeWorkbook(t, path)

	src := NewXLSXSource(path, "", logx.Nop())
	people, err := src.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(people) != 4 {
		t.Fatalf("got %d people, want 4 (header skipped)", len(people))
	}

	if people[0].DisplayName() != "Ivanov Ivan Ivanovich" {
		t.Fatalf("unexpected first person: %q", people[0].DisplayName())
	}
	if dm, ok := people[0].Birth.DayMonth(); !ok || dm != "01.01" {
		t.Fatalf("text birth = (%q, %v), want (01.01, true)", dm, ok)
	}
	if dm, ok := people[2].Birth.DayMonth(); !ok || dm != "01.01" {
		t.Fatalf("date birth = (%q, %v), want (01.01, true)", dm, ok)
	}
	if _, ok := people[3].Birth.DayMonth(); ok {
		t.Fatal("empty cell must be NoBirth")
	}
}

func TestXLSXSourceMissingFile(t *testing.T) {
	t.Parallel()
	src := NewXLSXSource(filepath.Join(t.TempDir(), "absent.xlsx"), "", logx.Nop())
	people, err := src.List(context.Background())
	if err != nil {
		t.Fatalf("List (missing file): %v", err)
	}
	if people != nil {
		t.Fatalf("List (missing file) = %v, want nil", people)
	}
}

func TestParseBirthCell(t *testing.T) {
	t.Parallel()
	if b := parseBirthCell("15.06"); b != TextBirth("15.06") {
		t.Fatalf("text cell parsed as %+v", b)
	}
	if b := parseBirthCell(""); b != NoBirth() {
		t.Fatalf("empty cell parsed as %+v", b)
	}
	// 33239 is the Excel serial for 1991-01-01.
	b := parseBirthCell("33239")
	if dm, ok := b.DayMonth(); !ok || dm != "01.01" {
		t.Fatalf("serial date parsed as (%q, %v), want (01.01, true)", dm, ok)
	}
}
