// Package report renders admin exports.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/helpdesk-ml/helpdesk/internal/domain"
	"github.com/helpdesk-ml/helpdesk/internal/repository"
)

const (
	ticketSheet  = "Tickets"
	summarySheet = "Summary"
)

var ticketHeader = []any{
	"Number", "Subject", "Category", "Priority", "Status", "Confidence",
	"Flagged", "User", "Technician", "Submitted", "Resolved", "Closed",
}

// WriteTickets writes an xlsx workbook with one row per ticket and a summary sheet.
func WriteTickets(w io.Writer, tickets []domain.TicketView, stats repository.TicketStats, generatedAt time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ticketSheet); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(ticketSheet, "A1", &ticketHeader); err != nil {
		return err
	}
	if err := f.SetCellStyle(ticketSheet, "A1", "L1", bold); err != nil {
		return err
	}

	for i, t := range tickets {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			t.Number, t.Subject, t.CategoryOrEmpty(), string(t.Priority), string(t.Status),
			confidence(t.ConfidenceScore), t.FlaggedForManualReview, t.UserName, deref(t.TechnicianName),
			stamp(&t.SubmittedAt), stamp(t.ResolvedAt), stamp(t.ClosedAt),
		}
		if err := f.SetSheetRow(ticketSheet, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(ticketSheet, "A", "L", 18); err != nil {
		return err
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	summary := [][]any{
		{"Generated", generatedAt.UTC().Format(time.RFC3339)},
		{"Total", stats.Total},
		{"Open", stats.Open},
		{"Resolved", stats.Resolved},
		{"Closed", stats.Closed},
		{"Awaiting manual review", stats.Flagged},
	}
	for category, count := range stats.ByCategory {
		summary = append(summary, []any{"Category: " + category, count})
	}
	for i := range summary {
		if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", i+1), &summary[i]); err != nil {
			return err
		}
	}

	_, err = f.WriteTo(w)
	return err
}

func confidence(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func stamp(v *time.Time) string {
	if v == nil || v.IsZero() {
		return ""
	}
	return v.UTC().Format("2006-01-02 15:04:05")
}
