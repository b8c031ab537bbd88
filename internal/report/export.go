// Package report turns ticket query results into spreadsheet exports.
package report

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/soundcrew/houston/internal/ticket"
	"github.com/soundcrew/houston/pkg/protocol"
)

const (
	// FileName is the attachment name of every export.
	FileName = "tickets_report.xlsx"
	// SheetName is the worksheet holding the rows.
	SheetName = "Обращения"
	// ContentType is the MIME type of the workbook.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Header lists the exported columns in order.
var Header = []string{
	"id",
	"created_at",
	"user_id",
	"username",
	"employees",
	"date",
	"venue",
	"play",
	"problem",
	"cause",
}

// Row returns the exported cells of one ticket, in Header order.
func Row(t *protocol.Ticket) []any {
	return []any{
		t.ID,
		t.CreatedAt.UTC().Format(time.RFC3339),
		t.Submitter.ID,
		t.Submitter.Name,
		t.StaffList(),
		t.Date,
		t.Venue,
		t.Play,
		t.Problem,
		t.Cause,
	}
}

// Workbook renders tickets as an xlsx document: one header row followed by
// one row per ticket.
func Workbook(tickets []*protocol.Ticket) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("report: rename sheet: %w", err)
	}

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("report: header: %w", err)
	}

	for i, t := range tickets {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("report: cell: %w", err)
		}
		row := Row(t)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("report: row %d: %w", t.ID, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("report: write: %w", err)
	}
	return buf.Bytes(), nil
}

// Describe names the filter for captions and notices, e.g. "по дате 2025-06-10".
func Describe(f ticket.Filter) string {
	switch {
	case f.Date != "":
		return "по дате " + f.Date
	case f.Play != "":
		return "по спектаклю «" + f.Play + "»"
	case f.Month != "":
		return "за " + f.Month
	default:
		return "по всем обращениям"
	}
}
