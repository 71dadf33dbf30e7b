package domain

import (
	"context"
	"io"
)

type RowError struct {
	Line  int    `json:"line"`
	Error string `json:"error"`
}

type ImportResult struct {
	Imported int        `json:"imported"`
	Failed   int        `json:"failed"`
	Errors   []RowError `json:"errors"`
}

var StudentCSVHeaders = []string{
	"student_name", "roll_number", "class", "course", "joining_date",
	"parent_phone", "parent_email", "address", "notes",
}

var ReceiptCSVHeaders = []string{
	"student_roll_number", "payment_date", "payment_method", "total_fee",
	"paid_amount", "description", "notes",
}

type ImportExportUseCase interface {
	ImportStudents(ctx context.Context, r io.Reader) (*ImportResult, error)
	ImportReceipts(ctx context.Context, r io.Reader) (*ImportResult, error)
	ExportStudents(ctx context.Context, w io.Writer) error
	ExportReceipts(ctx context.Context, w io.Writer) error
	WriteTemplate(kind string, w io.Writer) error
}
