package format

import (
	"encoding/csv"
	"io"
)

// Headers are the column titles of an exported charge sheet.
var Headers = []string{
	"Sequence ID",
	"User name",
	"Call from",
	"Call to",
	"Call type",
	"Number type",
	"Dial starts at",
	"Dial answered at",
	"Dial ends at",
	"Ringing time",
	"Call duration",
	"Call memo",
	"Call charge",
}

// CSVWriter writes records as CSV rows under Headers.
type CSVWriter struct {
	w           *csv.Writer
	wroteHeader bool
}

func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: csv.NewWriter(w)}
}

// Write appends one record, writing the header row first if needed.
func (cw *CSVWriter) Write(r Record) error {
	if !cw.wroteHeader {
		if err := cw.w.Write(Headers); err != nil {
			return err
		}
		cw.wroteHeader = true
	}
	return cw.w.Write([]string{
		r.SequenceID,
		r.UserName,
		r.CallFrom,
		r.CallTo,
		r.CallType,
		r.NumberType,
		r.DialStartsAt,
		r.DialAnsweredAt,
		r.DialEndsAt,
		r.RingingTime,
		r.CallDuration,
		r.CallMemo,
		r.CallCharge,
	})
}

// Flush writes buffered rows and reports any write error. An empty export
// still gets its header row.
func (cw *CSVWriter) Flush() error {
	if !cw.wroteHeader {
		if err := cw.w.Write(Headers); err != nil {
			return err
		}
		cw.wroteHeader = true
	}
	cw.w.Flush()
	return cw.w.Error()
}
