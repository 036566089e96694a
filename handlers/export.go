package handlers

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"pricewatch/models"

	"github.com/xuri/excelize/v2"
)

const historySheet = "Price History"

var historyColumns = []string{"Recorded At", "Title", "Price", "Source", "Confidence", "URL"}

// ExportPriceHistory streams a URL's history as an XLSX workbook
func (h *Handlers) ExportPriceHistory(w http.ResponseWriter, r *http.Request) {
	rawURL, days, ok := historyParams(w, r)
	if !ok {
		return
	}

	history, err := h.tracker.GetPriceHistory(r.Context(), rawURL, days)
	if err != nil {
		log.Printf("❌ Failed to get price history: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to get price history")
		return
	}

	f, err := buildHistoryWorkbook(history)
	if err != nil {
		log.Printf("❌ Failed to build export: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to build export")
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("price-history-%s.xlsx", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)

	if err := f.Write(w); err != nil {
		log.Printf("❌ Failed to write export: %v", err)
	}
}

// buildHistoryWorkbook lays records out one per row under a bold header
func buildHistoryWorkbook(history []models.PriceRecord) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", historySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(historyColumns))
	for i, col := range historyColumns {
		header[i] = col
	}
	if err := f.SetSheetRow(historySheet, "A1", &header); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create style: %w", err)
	}
	if err := f.SetCellStyle(historySheet, "A1", "F1", bold); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to style header: %w", err)
	}

	for i, rec := range history {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		row := []interface{}{rec.RecordedAt, rec.Title, rec.Price, string(rec.Source), rec.Confidence, rec.URL}
		if err := f.SetSheetRow(historySheet, cell, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	f.SetColWidth(historySheet, "A", "A", 22)
	f.SetColWidth(historySheet, "B", "B", 50)
	f.SetColWidth(historySheet, "F", "F", 60)

	return f, nil
}
