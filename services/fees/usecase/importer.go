package usecase

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"schoolfee/domain"

	"github.com/pkg/errors"
	"gorm.io/datatypes"
)

const (
	TemplateStudents = "students"
	TemplateReceipts = "receipts"
)

type importExportUC struct {
	students   domain.StudentUseCase
	receipts   domain.ReceiptUseCase
	studentDir domain.StudentRepo
}

func NewImportExportUseCase(students domain.StudentUseCase, receipts domain.ReceiptUseCase, studentDir domain.StudentRepo) domain.ImportExportUseCase {
	return &importExportUC{
		students:   students,
		receipts:   receipts,
		studentDir: studentDir,
	}
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("empty date")
	}
	layouts := []string{
		"2006-01-02",
		"2006/01/02",
		"02/01/2006",
		"02-01-2006",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04:05Z07:00",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date format: %s", value)
}

func parseAmount(value string) (float64, error) {
	value = strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	if value == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.Errorf("invalid amount %q", value)
	}
	return v, nil
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func normalizeHeaders(headers []string) map[string]int {
	result := make(map[string]int, len(headers))
	for idx, header := range headers {
		normalized := normalizeHeader(header)
		if _, exists := result[normalized]; !exists {
			result[normalized] = idx
		}
	}
	return result
}

func normalizeHeader(value string) string {
	value = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(value, "\ufeff")))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(value)
}

// columns resolves each wanted header to its index, -1 when absent.
func columns(headers map[string]int, wanted []string) []int {
	idx := make([]int, len(wanted))
	for i, name := range wanted {
		if j, ok := headers[normalizeHeader(name)]; ok {
			idx[i] = j
		} else {
			idx[i] = -1
		}
	}
	return idx
}

func getValue(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// readRows reads a CSV with a header line and calls fn for each data row.
// Rejected rows are reported by their 1-based file line, never fatal.
func readRows(r io.Reader, required []string, all []string, fn func(get func(string) string) error) (*domain.ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, domain.NewValidationError(domain.FieldError{Field: "file", Error: "missing header row"})
	}
	headers := normalizeHeaders(header)
	var missing []domain.FieldError
	for _, name := range required {
		if _, ok := headers[normalizeHeader(name)]; !ok {
			missing = append(missing, domain.FieldError{Field: name, Error: "missing column"})
		}
	}
	if len(missing) > 0 {
		return nil, domain.NewValidationError(missing...)
	}

	idx := columns(headers, all)
	pos := make(map[string]int, len(all))
	for i, name := range all {
		pos[name] = idx[i]
	}

	result := &domain.ImportResult{Errors: []domain.RowError{}}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			line := 0
			if errors.As(err, &perr) {
				line = perr.StartLine
			}
			result.Failed++
			result.Errors = append(result.Errors, domain.RowError{Line: line, Error: err.Error()})
			continue
		}
		if isBlank(record) {
			continue
		}
		line, _ := reader.FieldPos(0)
		get := func(name string) string { return getValue(record, pos[name]) }
		if err := fn(get); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, domain.RowError{Line: line, Error: err.Error()})
			continue
		}
		result.Imported++
	}
	return result, nil
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func (iuc *importExportUC) ImportStudents(ctx context.Context, r io.Reader) (*domain.ImportResult, error) {
	return readRows(r, []string{"student_name", "roll_number", "class"}, domain.StudentCSVHeaders, func(get func(string) string) error {
		joined := nowFunc()
		if v := get("joining_date"); v != "" {
			d, err := parseDate(v)
			if err != nil {
				return err
			}
			joined = d
		}
		s := &domain.Student{
			StudentName: get("student_name"),
			RollNumber:  get("roll_number"),
			Class:       get("class"),
			Course:      get("course"),
			JoiningDate: datatypes.Date(joined),
			ParentPhone: optional(get("parent_phone")),
			ParentEmail: optional(get("parent_email")),
			Address:     optional(get("address")),
			Notes:       optional(get("notes")),
		}
		_, err := iuc.students.CreateStudent(ctx, s)
		return err
	})
}

func (iuc *importExportUC) ImportReceipts(ctx context.Context, r io.Reader) (*domain.ImportResult, error) {
	return readRows(r, []string{"student_roll_number", "payment_date", "paid_amount"}, domain.ReceiptCSVHeaders, func(get func(string) string) error {
		student, err := iuc.studentDir.GetStudentByRollNumber(ctx, get("student_roll_number"))
		if err != nil {
			return errors.Wrapf(err, "student %q", get("student_roll_number"))
		}
		paid, err := parseDate(get("payment_date"))
		if err != nil {
			return err
		}
		method := domain.PaymentCash
		if v := get("payment_method"); v != "" {
			m, ok := domain.ParsePaymentMethod(v)
			if !ok {
				return fmt.Errorf("unknown payment method: %s", v)
			}
			method = m
		}
		total, err := parseAmount(get("total_fee"))
		if err != nil {
			return errors.Wrap(err, "total_fee")
		}
		amount, err := parseAmount(get("paid_amount"))
		if err != nil {
			return errors.Wrap(err, "paid_amount")
		}

		_, err = iuc.receipts.CreateReceipt(ctx, &domain.Receipt{
			StudentID:     student.ID,
			PaymentDate:   datatypes.Date(paid),
			PaymentMethod: method,
			TotalFee:      total,
			PaidAmount:    amount,
			Description:   optional(get("description")),
			Notes:         optional(get("notes")),
		})
		return err
	})
}

func (iuc *importExportUC) ExportStudents(ctx context.Context, w io.Writer) error {
	students, err := iuc.students.GetAllStudents(ctx, domain.StudentFilter{})
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(domain.StudentCSVHeaders); err != nil {
		return err
	}
	for _, s := range *students {
		row := []string{
			s.StudentName,
			s.RollNumber,
			s.Class,
			s.Course,
			time.Time(s.JoiningDate).Format("2006-01-02"),
			deref(s.ParentPhone),
			deref(s.ParentEmail),
			deref(s.Address),
			deref(s.Notes),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func (iuc *importExportUC) ExportReceipts(ctx context.Context, w io.Writer) error {
	receipts, err := iuc.receipts.GetAllReceipts(ctx, domain.ReceiptFilter{})
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(domain.ReceiptCSVHeaders); err != nil {
		return err
	}
	for i := range *receipts {
		r := &(*receipts)[i]
		roll := ""
		if r.Student != nil {
			roll = r.Student.RollNumber
		}
		row := []string{
			roll,
			r.PaidOn().Format("2006-01-02"),
			string(r.PaymentMethod),
			formatAmount(r.TotalFee),
			formatAmount(r.PaidAmount),
			deref(r.Description),
			deref(r.Notes),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteTemplate writes the header row and one sample line.
func (iuc *importExportUC) WriteTemplate(kind string, w io.Writer) error {
	var rows [][]string
	switch kind {
	case TemplateStudents:
		rows = [][]string{
			domain.StudentCSVHeaders,
			{"Ayesha Khan", "CT-001", "Web Development - Morning", "Web Development", "2025-01-15", "03001234567", "parent@example.com", "Street 1, Lahore", ""},
		}
	case TemplateReceipts:
		rows = [][]string{
			domain.ReceiptCSVHeaders,
			{"CT-001", "2025-02-01", string(domain.PaymentCash), "15000", "10000", "February fee", ""},
		}
	default:
		return errors.Wrapf(domain.ErrNotFound, "template %q", kind)
	}

	writer := csv.NewWriter(w)
	if err := writer.WriteAll(rows); err != nil {
		return err
	}
	return writer.Error()
}
