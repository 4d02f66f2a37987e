// Package display renders query results for the terminal.
package display

import (
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/mini-rodalies-3d/ticketwatch/internal/ticket"
)

// seatColumns are the classes shown in the result table, in column order
var seatColumns = []ticket.SeatClass{
	ticket.SeatBusiness,
	ticket.SeatFirst,
	ticket.SeatSecond,
	ticket.SeatHardSleeper,
	ticket.SeatSoftSleeper,
	ticket.SeatHardSeat,
	ticket.SeatNoSeat,
}

// Header returns the table's column titles
func Header() []string {
	header := []string{"车次", "出发时间", "到达时间", "历时"}
	for _, class := range seatColumns {
		header = append(header, class.Label())
	}
	return header
}

// Row returns the table cells for one record
func Row(rec ticket.Record) []string {
	row := []string{rec.TrainCode, rec.DepartureTime, rec.ArrivalTime, rec.Duration}
	for _, class := range seatColumns {
		row = append(row, rec.Seat(class))
	}
	return row
}

// TableRenderer writes every poll's records as a table
type TableRenderer struct {
	out io.Writer
}

// NewTableRenderer creates a renderer writing to out
func NewTableRenderer(out io.Writer) *TableRenderer {
	return &TableRenderer{out: out}
}

// Render writes records as one table
func (r *TableRenderer) Render(records []ticket.Record) {
	table := tablewriter.NewWriter(r.out)
	table.SetHeader(Header())
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_CENTER)
	for _, rec := range records {
		table.Append(Row(rec))
	}
	table.Render()
}
