package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/helpdesk-ml/helpdesk/internal/domain"
	"github.com/helpdesk-ml/helpdesk/internal/repository"
)

func TestWriteTickets(t *testing.T) {
	category := "Hardware"
	score := 85.0
	tech := "Alice"
	now := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	tickets := []domain.TicketView{{
		Ticket: domain.Ticket{
			Number: "TKT-1", Subject: "printer jammed", Category: &category, ConfidenceScore: &score,
			Priority: domain.TicketPriorityHigh, Status: domain.TicketStatusAssigned, SubmittedAt: now,
		},
		UserName:       "Bob",
		TechnicianName: &tech,
	}}
	stats := repository.TicketStats{Total: 1, Open: 1, ByCategory: map[string]int{"Hardware": 1}}

	var buf bytes.Buffer
	require.NoError(t, WriteTickets(&buf, tickets, stats, now))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(ticketSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Number", rows[0][0])
	assert.Equal(t, "TKT-1", rows[1][0])
	assert.Equal(t, "Hardware", rows[1][2])
	assert.Equal(t, "Alice", rows[1][8])
	assert.Equal(t, "2026-03-01 09:30:00", rows[1][9])

	total, err := f.GetCellValue(summarySheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "1", total)
}
