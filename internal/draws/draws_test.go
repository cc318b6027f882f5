package draws

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

const header = "期号,日期,前区,后区\n"

func TestParseValidRows(t *testing.T) {
	content := header +
		`24002,2024-01-03,"35,1,12,7,20","9,2"` + "\n" +
		`24001,2024-01-01,"1,2,3,4,5","6,7"` + "\n"

	store, err := Parse(content)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if store.Len() != 2 {
		t.Fatalf("expected 2 periods, got %d", store.Len())
	}
	if got := store.Periods(); !reflect.DeepEqual(got, []string{"24001", "24002"}) {
		t.Errorf("Periods() = %v", got)
	}

	d, ok := store.Get("24002")
	if !ok {
		t.Fatal("period 24002 missing")
	}
	if !reflect.DeepEqual(d.Front, []int{1, 7, 12, 20, 35}) || !reflect.DeepEqual(d.Back, []int{2, 9}) {
		t.Errorf("numbers not sorted: front=%v back=%v", d.Front, d.Back)
	}
	if d.Date != "2024-01-03" {
		t.Errorf("Date = %q", d.Date)
	}
	if store.Latest().Period != "24002" {
		t.Errorf("Latest() = %s", store.Latest().Period)
	}
}

func TestParseSkipsMalformedRows(t *testing.T) {
	rows := []string{
		`24001,2024-01-01,"1,2,3,4,5","6,7"`,
		`abc,2024-01-02,"1,2,3,4,5","6,7"`,         // bad period
		`123,2024-01-02,"1,2,3,4,5","6,7"`,         // period too short
		`24002,2024-01-02,"1,2,3,4","6,7"`,         // 4 fronts
		`24003,2024-01-02,"1,2,3,4,36","6,7"`,      // front out of range
		`24004,2024-01-02,"1,2,3,4,5","6,13"`,      // back out of range
		`24005,2024-01-02,"1,2,3,4,5","6"`,         // 1 back
		`24006,2024-01-02,"1,2,x,4,5","6,7"`,       // not a number
		`24007,2024-01-02`,                         // too few columns
		`24008,2024-01-02,"1,1,3,4,5","6,7"`,       // repeated front
		`24009,2024-01-05,"10,11,12,13,14","1,12"`, // valid
	}
	store, err := Parse(header + strings.Join(rows, "\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := store.Periods(); !reflect.DeepEqual(got, []string{"24001", "24009"}) {
		t.Errorf("Periods() = %v", got)
	}
	if len(store.Skipped()) != 9 {
		t.Errorf("expected 9 skipped rows, got %d: %v", len(store.Skipped()), store.Skipped())
	}
	if store.Skipped()[0].Line != 3 {
		t.Errorf("first skipped line = %d, want 3", store.Skipped()[0].Line)
	}
}

func TestParseEmptyInput(t *testing.T) {
	if _, err := Parse("  \n"); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}
}

func TestParseNoValidRecords(t *testing.T) {
	_, err := Parse(header + `1,2024-01-01,"1,2,3,4,5","6,7"`)
	if !errors.Is(err, ErrNoValidRecords) {
		t.Errorf("expected ErrNoValidRecords, got %v", err)
	}
}

func TestSortPeriodsNumeric(t *testing.T) {
	periods := []string{"097", "0100", "099"}
	SortPeriods(periods)
	if !reflect.DeepEqual(periods, []string{"097", "099", "0100"}) {
		t.Errorf("SortPeriods() = %v", periods)
	}

	mixed := []string{"2024001", "24150", "9999"}
	SortPeriods(mixed)
	if !reflect.DeepEqual(mixed, []string{"9999", "24150", "2024001"}) {
		t.Errorf("SortPeriods() = %v", mixed)
	}
}

func TestEvaluationPair(t *testing.T) {
	content := header +
		`0100,2024-01-05,"1,2,3,4,5","6,7"` + "\n" +
		`0098,2024-01-01,"1,2,3,4,5","6,7"` + "\n" +
		`0099,2024-01-03,"1,2,3,4,5","6,7"` + "\n"
	store, err := Parse(content)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	eval, cutoff, err := store.EvaluationPair()
	if err != nil {
		t.Fatalf("EvaluationPair failed: %v", err)
	}
	if eval != "0100" || cutoff != "0099" {
		t.Errorf("EvaluationPair() = %s, %s", eval, cutoff)
	}

	single, err := Parse(header + `24001,2024-01-01,"1,2,3,4,5","6,7"`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if _, _, err := single.EvaluationPair(); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestParseNumbers(t *testing.T) {
	got, err := ParseNumbers("01 02  10", "")
	if err != nil || !reflect.DeepEqual(got, []int{1, 2, 10}) {
		t.Errorf("ParseNumbers whitespace = %v, %v", got, err)
	}
	got, err = ParseNumbers(" 3, 4 ", ",")
	if err != nil || !reflect.DeepEqual(got, []int{3, 4}) {
		t.Errorf("ParseNumbers comma = %v, %v", got, err)
	}
	if _, err := ParseNumbers("1,,2", ","); err == nil {
		t.Error("expected error for empty field")
	}
}
