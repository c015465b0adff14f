package birthday

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	logx "bdaybot/pkg/logx"
)

// Column layout of the spreadsheet (zero-based, header row first):
// A unused, B last name, C first name, D middle name, E birth date.
const (
	colLastName  = 1
	colFirstName = 2
	colMiddle    = 3
	colBirth     = 4
)

// XLSXSource reads person records from a workbook on disk. The file is opened
// per call so edits to the spreadsheet are picked up without a restart.
type XLSXSource struct {
	path  string
	sheet string // empty means first sheet
	log   logx.Logger
}

func NewXLSXSource(path, sheet string, log logx.Logger) *XLSXSource {
	if strings.TrimSpace(path) == "" {
		path = "./birthday_data.xlsx"
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &XLSXSource{path: path, sheet: sheet, log: log}
}

func (s *XLSXSource) Path() string { return s.path }

func (s *XLSXSource) List(ctx context.Context) ([]Person, error) {
	if _, err := os.Stat(s.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.log.Warn("spreadsheet missing, treating as no birthdays", logx.String("path", s.path))
			return nil, nil
		}
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			s.log.Debug("workbook close failed", logx.Err(cerr))
		}
	}()

	sheet := strings.TrimSpace(s.sheet)
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	// Raw values keep the date cells as Excel serial numbers so we can tell
	// a real date value apart from free text.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	var people []Person
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		people = append(people, Person{
			LastName:   cell(row, colLastName),
			FirstName:  cell(row, colFirstName),
			MiddleName: cell(row, colMiddle),
			Birth:      parseBirthCell(cell(row, colBirth)),
		})
	}
	return people, nil
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return row[idx]
}

// parseBirthCell classifies a raw cell value. Numeric cells are Excel serial
// dates; everything non-empty and non-numeric is free text.
func parseBirthCell(raw string) Birth {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return NoBirth()
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return NoBirth()
		}
		return DateBirth(t.Day(), t.Month())
	}
	return TextBirth(raw)
}
