package server

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/BuongiornoTexas/pwdusage/pkg/log"
	"github.com/BuongiornoTexas/pwdusage/pkg/metrics"
	"github.com/BuongiornoTexas/pwdusage/pkg/types"
)

// handleExport runs the same query as handleQuery but returns the table as a
// spreadsheet download instead of JSON.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	q, err := parseQuery(r)
	if err != nil {
		metrics.IncQueryError("request")
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	table, err := s.engine.Usage(ctx, q)
	if err != nil {
		metrics.IncQueryError(errorKind(err))
		log.Ctx(ctx).ErrorContext(ctx, "usage export failed", slog.Any("error", err))
		writeJSONError(w, err.Error(), statusUpstreamError)
		return
	}

	data, err := buildTableXLSX(table)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "spreadsheet build failed", slog.Any("error", err))
		writeJSONError(w, "failed to build spreadsheet", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("%s-%s.xlsx", table.Name, q.Start.Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := w.Write(data); err != nil {
		panic(http.ErrAbortHandler)
	}
}

// buildTableXLSX renders a report table as a single-sheet workbook. Time
// columns carry millisecond epochs in the table and are written out as
// readable timestamps.
func buildTableXLSX(table *types.Table) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "usage"
	f.SetSheetName("Sheet1", sheet)

	for i, col := range table.Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, col.Text); err != nil {
			return nil, err
		}
	}

	for r, row := range table.Rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return nil, err
			}
			if v == nil {
				continue
			}
			if table.Columns[c].Type == "time" {
				if ms, ok := v.(float64); ok {
					v = time.UnixMilli(int64(ms)).UTC().Format("2006-01-02 15:04:05")
				}
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
