// Package sheet implements the spreadsheet-backed ticket store. Tickets live
// in one worksheet of an XLSX workbook: row 1 is the header, data rows start
// at row 2 and span columns A through H in domain.Columns order. A ticket's
// position is its row number, so row order is store order.
//
// Writes re-open the workbook, verify the target row still holds the ticket
// id observed at read time (cell A), apply the change and save atomically via
// a temporary file and rename. In-process access is serialised with a mutex.
package sheet

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/tbourn/go-support-agent/internal/domain"
)

const firstDataRow = 2

// Store is a ticket store over a single worksheet of an XLSX workbook.
type Store struct {
	path  string
	sheet string

	mu sync.Mutex
}

// New returns a Store for the given workbook path and sheet name.
func New(path, sheet string) *Store {
	return &Store{path: path, sheet: sheet}
}

// Init creates the workbook and the ticket sheet with its header row if they
// do not exist yet. Existing data is left untouched.
func (s *Store) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.open(true)
	if err != nil {
		return err
	}
	defer f.Close()
	return s.save(f)
}

// List reads every data row in sheet order. A missing workbook yields no
// tickets. Blank rows are skipped but keep their position.
func (s *Store) List(ctx context.Context) ([]domain.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.open(false)
	if errors.Is(err, os.ErrNotExist) {
		return []domain.Ticket{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := f.GetRows(s.sheet)
	if err != nil {
		return nil, fmt.Errorf("get rows of %q: %w", s.sheet, err)
	}

	out := make([]domain.Ticket, 0, len(rows))
	for i := firstDataRow - 1; i < len(rows); i++ {
		if blank(rows[i]) {
			continue
		}
		out = append(out, domain.TicketFromRow(rows[i], i+1))
	}
	return out, nil
}

// Append writes t as a new row after the last non-empty row.
func (s *Store) Append(ctx context.Context, t domain.Ticket) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.open(true)
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := f.GetRows(s.sheet)
	if err != nil {
		return fmt.Errorf("get rows of %q: %w", s.sheet, err)
	}
	next := len(rows) + 1
	if next < firstDataRow {
		next = firstDataRow
	}

	if err := s.writeRow(f, "A", next, toCells(t.Values())); err != nil {
		return err
	}
	return s.save(f)
}

// Update overwrites timestamp, email, subject, summary and classification
// (columns B through F) of the row observed at t.Row.
func (s *Store) Update(ctx context.Context, t domain.Ticket) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.openForWrite(t)
	if err != nil {
		return err
	}
	defer f.Close()

	cells := toCells([]string{t.Timestamp, t.Email, t.Subject, t.Summary, t.Classification})
	if err := s.writeRow(f, "B", t.Row, cells); err != nil {
		return err
	}
	return s.save(f)
}

// SetFollowUp writes marker into column H of the row observed at t.Row.
func (s *Store) SetFollowUp(ctx context.Context, t domain.Ticket, marker string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.openForWrite(t)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := s.writeRow(f, "H", t.Row, []any{marker}); err != nil {
		return err
	}
	return s.save(f)
}

// openForWrite opens the workbook and checks that cell A of t.Row still
// holds t.ID.
func (s *Store) openForWrite(t domain.Ticket) (*excelize.File, error) {
	if t.Row < firstDataRow {
		return nil, fmt.Errorf("%w: ticket %q has no sheet row", domain.ErrNotFound, t.ID)
	}
	f, err := s.open(false)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: workbook %s", domain.ErrNotFound, s.path)
	}
	if err != nil {
		return nil, err
	}
	id, err := f.GetCellValue(s.sheet, fmt.Sprintf("A%d", t.Row))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read ticket id at row %d: %w", t.Row, err)
	}
	if id != t.ID {
		f.Close()
		return nil, fmt.Errorf("%w: row %d holds %q, expected %q", domain.ErrConflict, t.Row, id, t.ID)
	}
	return f, nil
}

// open opens the workbook. With create set, a missing workbook or sheet is
// created with the header row.
func (s *Store) open(create bool) (*excelize.File, error) {
	f, err := excelize.OpenFile(s.path)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist) && create:
		f = excelize.NewFile()
		if err := f.SetSheetName("Sheet1", s.sheet); err != nil {
			f.Close()
			return nil, fmt.Errorf("name sheet %q: %w", s.sheet, err)
		}
		if err := s.writeRow(f, "A", 1, toCells(domain.Columns)); err != nil {
			f.Close()
			return nil, err
		}
		return f, nil
	default:
		return nil, fmt.Errorf("open workbook %s: %w", s.path, err)
	}

	idx, err := f.GetSheetIndex(s.sheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("lookup sheet %q: %w", s.sheet, err)
	}
	if idx >= 0 {
		return f, nil
	}
	if !create {
		f.Close()
		return nil, fmt.Errorf("sheet %q not found in %s", s.sheet, s.path)
	}
	if _, err := f.NewSheet(s.sheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet %q: %w", s.sheet, err)
	}
	if err := s.writeRow(f, "A", 1, toCells(domain.Columns)); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func (s *Store) writeRow(f *excelize.File, col string, row int, cells []any) error {
	cell := fmt.Sprintf("%s%d", col, row)
	if err := f.SetSheetRow(s.sheet, cell, &cells); err != nil {
		return fmt.Errorf("write %s!%s: %w", s.sheet, cell, err)
	}
	return nil
}

// save writes the workbook next to its final path and renames it into place.
func (s *Store) save(f *excelize.File) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := s.path + ".tmp.xlsx"
	if err := f.SaveAs(tmp); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("save workbook: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace workbook: %w", err)
	}
	return nil
}

func toCells(vals []string) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}

func blank(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}
