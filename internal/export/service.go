// Package export renders a finished batch as an XLSX workbook.
package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/summarizely/pdf-summarizer/constants"
	"github.com/summarizely/pdf-summarizer/internal/entity"
)

const (
	summariesSheet = "Summaries"
	downloadsSheet = "Downloads"
)

// Service produces XLSX bytes from the final ordered record sequence.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// BuildReport renders two sheets: Summaries (full results) and
// Downloads (fetch outcome per link). Rows follow input URL order and
// include every URL exactly once, whatever its outcome.
func (s *Service) BuildReport(records []*entity.JobRecord) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	f.SetSheetName("Sheet1", summariesSheet)
	if _, err := f.NewSheet(downloadsSheet); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	wrapStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return nil, fmt.Errorf("wrap style: %w", err)
	}

	if err := s.writeSummaries(f, records, headerStyle, wrapStyle); err != nil {
		return nil, err
	}
	if err := s.writeDownloads(f, records, headerStyle); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(records),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func (s *Service) writeSummaries(f *excelize.File, records []*entity.JobRecord, headerStyle, wrapStyle int) error {
	headers := []string{
		"Link",
		"File Name",
		"Status",
		"Long Summary",
		"Short Summary",
		"Error Message",
		"Created At",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(summariesSheet, cell, h)
	}

	row := 2
	for _, rec := range records {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(summariesSheet, cell, v)
		}
		write(1, rec.URL)
		write(2, rec.Filename)
		write(3, string(rec.Status))
		write(4, rec.LongSummary)
		write(5, rec.ShortSummary)
		write(6, rec.ErrorMessage)
		write(7, rec.CreatedAt.UTC().Format(time.RFC3339))
		row++
	}

	_ = f.SetColWidth(summariesSheet, "A", "A", 50)
	_ = f.SetColWidth(summariesSheet, "B", "B", 30)
	_ = f.SetColWidth(summariesSheet, "C", "C", 15)
	_ = f.SetColWidth(summariesSheet, "D", "D", 80)
	_ = f.SetColWidth(summariesSheet, "E", "E", 60)
	_ = f.SetColWidth(summariesSheet, "F", "F", 40)
	_ = f.SetColWidth(summariesSheet, "G", "G", 22)

	lastHeader, _ := excelize.CoordinatesToCellName(len(headers), 1)
	_ = f.SetCellStyle(summariesSheet, "A1", lastHeader, headerStyle)
	if row > 2 {
		lastCell, _ := excelize.CoordinatesToCellName(len(headers), row-1)
		_ = f.SetCellStyle(summariesSheet, "A2", lastCell, wrapStyle)
	}
	return nil
}

func (s *Service) writeDownloads(f *excelize.File, records []*entity.JobRecord, headerStyle int) error {
	headers := []string{"Link", "File Name", "Download Status"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(downloadsSheet, cell, h)
	}

	row := 2
	for _, rec := range records {
		status := string(rec.Status)
		if rec.Status == constants.JobStatusFailed && rec.ErrorMessage != "" {
			status = fmt.Sprintf("Failed: %s", rec.ErrorMessage)
		}
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(downloadsSheet, cell, v)
		}
		write(1, rec.URL)
		write(2, rec.Filename)
		write(3, status)
		row++
	}

	_ = f.SetColWidth(downloadsSheet, "A", "A", 60)
	_ = f.SetColWidth(downloadsSheet, "B", "B", 40)
	_ = f.SetColWidth(downloadsSheet, "C", "C", 50)

	lastHeader, _ := excelize.CoordinatesToCellName(len(headers), 1)
	_ = f.SetCellStyle(downloadsSheet, "A1", lastHeader, headerStyle)
	return nil
}

// Stats summarizes batch outcomes for the end-of-run log line.
type Stats struct {
	Total       int
	Succeeded   int
	Failed      int
	SuccessRate float64
}

func ComputeStats(records []*entity.JobRecord) Stats {
	st := Stats{Total: len(records)}
	for _, rec := range records {
		switch rec.Status {
		case constants.JobStatusSuccess:
			st.Succeeded++
		case constants.JobStatusFailed:
			st.Failed++
		}
	}
	if st.Total > 0 {
		st.SuccessRate = float64(st.Succeeded) / float64(st.Total) * 100
	}
	return st
}
