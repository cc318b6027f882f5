// Package draws parses the historical draw CSV into a period-indexed store.
//
// Rows are validated one by one; malformed rows are skipped and reported
// through Store.Skipped instead of aborting the parse.
package draws

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/rewired-gh/dltcheck/internal/models"
)

var (
	// ErrEmptyInput is returned when there is no CSV content at all.
	ErrEmptyInput = errors.New("draw data is empty")
	// ErrNoValidRecords is returned when no row passes validation.
	ErrNoValidRecords = errors.New("no valid draw records")
	// ErrInsufficientData is returned when fewer than two periods are available.
	ErrInsufficientData = errors.New("at least two draw periods are required")
)

// RowIssue describes a skipped CSV row. Line is 1-based and counts the header.
type RowIssue struct {
	Line   int
	Reason string
	Raw    []string
}

func (r RowIssue) String() string {
	return fmt.Sprintf("line %d: %s %v", r.Line, r.Reason, r.Raw)
}

// Store is the parsed, read-only draw history.
type Store struct {
	draws   map[string]models.Draw
	periods []string
	skipped []RowIssue
}

// Parse builds a Store from CSV content with a header row followed by
// period,date,front,back rows where front and back are comma-separated numbers.
func Parse(content string) (*Store, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyInput
	}

	reader := csv.NewReader(strings.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	s := &Store{draws: make(map[string]models.Draw)}

	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			// csv.ParseError still consumed the row; keep going
			s.skipped = append(s.skipped, RowIssue{Line: line, Reason: err.Error()})
			continue
		}
		if line == 1 {
			continue // header
		}

		draw, reason := parseRow(record)
		if reason != "" {
			s.skipped = append(s.skipped, RowIssue{Line: line, Reason: reason, Raw: record})
			continue
		}
		if _, dup := s.draws[draw.Period]; !dup {
			s.periods = append(s.periods, draw.Period)
		}
		s.draws[draw.Period] = draw
	}

	if len(s.draws) == 0 {
		return nil, ErrNoValidRecords
	}

	SortPeriods(s.periods)
	return s, nil
}

func parseRow(record []string) (models.Draw, string) {
	if len(record) < 4 {
		return models.Draw{}, fmt.Sprintf("expected at least 4 columns, got %d", len(record))
	}
	period := strings.TrimSpace(record[0])
	if !models.ValidPeriod(period) {
		return models.Draw{}, fmt.Sprintf("invalid period %q", period)
	}

	front, err := ParseNumbers(record[2], ",")
	if err != nil {
		return models.Draw{}, fmt.Sprintf("invalid front numbers: %v", err)
	}
	back, err := ParseNumbers(record[3], ",")
	if err != nil {
		return models.Draw{}, fmt.Sprintf("invalid back numbers: %v", err)
	}

	draw := models.Draw{
		Period: period,
		Date:   strings.TrimSpace(record[1]),
		Front:  models.SortedCopy(front),
		Back:   models.SortedCopy(back),
	}
	if err := draw.Validate(); err != nil {
		return models.Draw{}, err.Error()
	}
	return draw, ""
}

// ParseNumbers splits s on sep and parses every field as an integer.
// sep == "" splits on whitespace.
func ParseNumbers(s, sep string) ([]int, error) {
	var fields []string
	if sep == "" {
		fields = strings.Fields(s)
	} else {
		fields = strings.Split(s, sep)
	}
	nums := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, err
		}
		nums = append(nums, n)
	}
	return nums, nil
}

// SortPeriods orders period identifiers by numeric value, so "0100" follows "099".
func SortPeriods(periods []string) {
	sort.SliceStable(periods, func(i, j int) bool {
		return comparePeriods(periods[i], periods[j]) < 0
	})
}

func comparePeriods(a, b string) int {
	x, okA := new(big.Int).SetString(a, 10)
	y, okB := new(big.Int).SetString(b, 10)
	if !okA || !okB {
		return strings.Compare(a, b)
	}
	return x.Cmp(y)
}

// Get returns the draw for period.
func (s *Store) Get(period string) (models.Draw, bool) {
	d, ok := s.draws[period]
	return d, ok
}

// Periods returns all periods in ascending numeric order.
func (s *Store) Periods() []string {
	out := make([]string, len(s.periods))
	copy(out, s.periods)
	return out
}

// Len returns the number of distinct periods.
func (s *Store) Len() int {
	return len(s.periods)
}

// Latest returns the most recent draw.
func (s *Store) Latest() models.Draw {
	return s.draws[s.periods[len(s.periods)-1]]
}

// Skipped returns the rows that failed validation.
func (s *Store) Skipped() []RowIssue {
	return s.skipped
}

// EvaluationPair returns the newest period (to be evaluated) and the one before it
// (the cutoff period of the report that made the recommendation).
func (s *Store) EvaluationPair() (eval, cutoff string, err error) {
	if len(s.periods) < 2 {
		return "", "", fmt.Errorf("%w: have %d", ErrInsufficientData, len(s.periods))
	}
	return s.periods[len(s.periods)-1], s.periods[len(s.periods)-2], nil
}
