package store

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"workforce-analyst/internal/models"
)

// LoadResult summarises one workbook import.
type LoadResult struct {
	Sheet    string
	Rows     int
	Inserted int
	Failed   int
}

// ReadWorkbookFile reads the first sheet of an .xlsx file.
func ReadWorkbookFile(path string) (string, []models.Record, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("error opening workbook: %w", err)
	}
	defer f.Close()
	return readFirstSheet(f)
}

// ReadWorkbook reads the first sheet of an .xlsx stream.
func ReadWorkbook(r io.Reader) (string, []models.Record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return "", nil, fmt.Errorf("error opening workbook: %w", err)
	}
	defer f.Close()
	return readFirstSheet(f)
}

// readFirstSheet turns each data row into a record keyed by the trimmed
// header. Empty cells are omitted, numeric cells (dates included, as raw
// serials) become float64, and each record gets its loader id.
func readFirstSheet(f *excelize.File) (string, []models.Record, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", nil, fmt.Errorf("workbook has no sheets")
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return sheet, nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return sheet, []models.Record{}, nil
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	records := make([]models.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := models.Record{}
		for j, cell := range row {
			if j >= len(headers) || headers[j] == "" || cell == "" {
				continue
			}
			if num, err := strconv.ParseFloat(cell, 64); err == nil {
				rec[headers[j]] = num
			} else {
				rec[headers[j]] = cell
			}
		}
		if len(rec) == 0 {
			continue
		}
		index := len(records)
		rec[models.IDField] = models.NewRecordID(cellText(rec["Name"]), cellText(rec["SOW No"]), index)
		records = append(records, rec)
	}
	return sheet, records, nil
}

func cellText(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}

// LoadWorkbookFile replaces the collection with the workbook's first sheet.
// Rows that fail to insert are counted and skipped.
func LoadWorkbookFile(ctx context.Context, s Store, path string) (*LoadResult, error) {
	sheet, records, err := ReadWorkbookFile(path)
	if err != nil {
		return nil, err
	}
	inserted, err := ReplaceAll(ctx, s, records)
	result := &LoadResult{
		Sheet:    sheet,
		Rows:     len(records),
		Inserted: inserted,
		Failed:   len(records) - inserted,
	}
	return result, err
}

// TrimKeys rewrites stored records whose field names carry surrounding
// whitespace. It returns the number of records changed.
func TrimKeys(ctx context.Context, s Store) (int, error) {
	records, err := s.ReadAll(ctx)
	if err != nil {
		return 0, err
	}
	changed := 0
	for _, rec := range records {
		trimmed := make(models.Record, len(rec))
		dirty := false
		for k, v := range rec {
			tk := strings.TrimSpace(k)
			if tk != k {
				dirty = true
			}
			trimmed[tk] = v
		}
		if !dirty {
			continue
		}
		if _, err := s.Replace(ctx, rec.ID(), trimmed); err != nil {
			return changed, fmt.Errorf("replace %s: %w", rec.ID(), err)
		}
		changed++
	}
	return changed, nil
}
