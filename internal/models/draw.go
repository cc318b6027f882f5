// Package models defines the core domain entities for the dltcheck application.
// These models represent Super Lotto draws, bet tickets, recommendation pools and
// the evaluation entries produced when recommendations are scored.
// All models include built-in validation to ensure data integrity throughout the application.
//
// Terminology:
//   - Period: identifier of one drawing, a numeric string that is not always fixed-width.
//   - Front/back: the two independent number pools (5 of 1-35 and 2 of 1-12).
//   - Cutoff period: the last period known to the report that made the recommendation.
package models

import (
	"fmt"
	"regexp"
	"sort"
)

const (
	// FrontCount is the number of front balls per ticket and draw.
	FrontCount = 5
	// BackCount is the number of back balls per ticket and draw.
	BackCount = 2
	// FrontMax is the largest valid front number.
	FrontMax = 35
	// BackMax is the largest valid back number.
	BackMax = 12
)

var periodPattern = regexp.MustCompile(`^\d{4,7}$`)

// ValidPeriod reports whether s looks like a drawing period identifier.
func ValidPeriod(s string) bool {
	return periodPattern.MatchString(s)
}

// Draw is the official result of one drawing.
type Draw struct {
	Period string `json:"period"`
	Date   string `json:"date"`
	Front  []int  `json:"front"` // ascending
	Back   []int  `json:"back"`  // ascending
}

// Validate checks that all draw fields are valid.
func (d *Draw) Validate() error {
	if !ValidPeriod(d.Period) {
		return fmt.Errorf("period %q must be 4-7 digits", d.Period)
	}
	if err := validateBalls(d.Front, FrontCount, FrontMax, "front"); err != nil {
		return err
	}
	return validateBalls(d.Back, BackCount, BackMax, "back")
}

// Ticket is one fully specified bet.
type Ticket struct {
	Front []int `json:"front"`
	Back  []int `json:"back"`
}

// NewTicket copies and sorts the numbers, then validates the result.
func NewTicket(front, back []int) (Ticket, error) {
	t := Ticket{Front: SortedCopy(front), Back: SortedCopy(back)}
	if err := t.Validate(); err != nil {
		return Ticket{}, err
	}
	return t, nil
}

// Validate checks ball counts, ranges and uniqueness.
func (t *Ticket) Validate() error {
	if err := validateBalls(t.Front, FrontCount, FrontMax, "front"); err != nil {
		return err
	}
	return validateBalls(t.Back, BackCount, BackMax, "back")
}

// ComplexPool is a compressed recommendation: any 5 fronts and 2 backs drawn from it form a bet.
// Either side may be empty when the report did not declare it.
type ComplexPool struct {
	Fronts []int `json:"fronts"`
	Backs  []int `json:"backs"`
}

// Empty reports whether the pool declares no numbers at all.
func (p ComplexPool) Empty() bool {
	return len(p.Fronts) == 0 && len(p.Backs) == 0
}

// Usable reports whether the pool is large enough to form at least one ticket.
func (p ComplexPool) Usable() bool {
	return len(p.Fronts) >= FrontCount && len(p.Backs) >= BackCount
}

// SortedCopy returns an ascending copy of nums.
func SortedCopy(nums []int) []int {
	out := make([]int, len(nums))
	copy(out, nums)
	sort.Ints(out)
	return out
}

func validateBalls(nums []int, count, max int, side string) error {
	if len(nums) != count {
		return fmt.Errorf("%s must have exactly %d numbers, got %d", side, count, len(nums))
	}
	seen := make(map[int]bool, len(nums))
	for _, n := range nums {
		if n < 1 || n > max {
			return fmt.Errorf("%s number %d out of range 1-%d", side, n, max)
		}
		if seen[n] {
			return fmt.Errorf("%s number %d repeated", side, n)
		}
		seen[n] = true
	}
	return nil
}
