// Package prize classifies tickets into DLT prize tiers and totals the winnings.
//
// Tiers are decided purely by (front hits, back hits):
//
//	5+2 -> 1   5+1 -> 2   5+0 -> 3   4+2 -> 4   4+1 -> 5
//	3+2 -> 6   4+0 -> 7   3+1 -> 8
//	2+2, 3+0, 1+2, 2+1, 0+2 -> 9
//
// Tier 1 and 2 amounts are pari-mutuel in reality; the table holds flat estimates.
package prize

import (
	"fmt"

	"github.com/rewired-gh/dltcheck/internal/models"
)

// Table maps each tier to its payout in yuan.
type Table map[models.Tier]int64

// DefaultTable returns the standard payout estimates.
func DefaultTable() Table {
	return Table{
		1: 10_000_000,
		2: 300_000,
		3: 10_000,
		4: 3_000,
		5: 300,
		6: 200,
		7: 100,
		8: 15,
		9: 5,
	}
}

// Validate checks every tier has a non-negative amount.
func (t Table) Validate() error {
	for _, tier := range models.Tiers {
		amount, ok := t[tier]
		if !ok {
			return fmt.Errorf("prize table is missing tier %d", tier)
		}
		if amount < 0 {
			return fmt.Errorf("prize for tier %d must not be negative", tier)
		}
	}
	if len(t) != len(models.Tiers) {
		return fmt.Errorf("prize table must contain exactly tiers 1-9")
	}
	return nil
}

type hits struct{ front, back int }

var tierByHits = map[hits]models.Tier{
	{5, 2}: 1,
	{5, 1}: 2,
	{5, 0}: 3,
	{4, 2}: 4,
	{4, 1}: 5,
	{3, 2}: 6,
	{4, 0}: 7,
	{3, 1}: 8,
	{2, 2}: 9,
	{3, 0}: 9,
	{1, 2}: 9,
	{2, 1}: 9,
	{0, 2}: 9,
}

// Classify returns the tier for the hit counts, or false when nothing is won.
func Classify(frontHits, backHits int) (models.Tier, bool) {
	tier, ok := tierByHits[hits{frontHits, backHits}]
	return tier, ok
}

// Engine scores tickets against a winning draw using a fixed table.
type Engine struct {
	table Table
}

// NewEngine copies table so later changes by the caller have no effect.
func NewEngine(table Table) (*Engine, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	own := make(Table, len(table))
	for k, v := range table {
		own[k] = v
	}
	return &Engine{table: own}, nil
}

// Amount returns the payout for a tier.
func (e *Engine) Amount(tier models.Tier) int64 {
	return e.table[tier]
}

// ScoreTicket checks a single ticket. The bool is false when the ticket wins nothing.
func (e *Engine) ScoreTicket(ticket models.Ticket, winning models.Draw) (models.ScoredTicket, bool) {
	frontMatched := intersect(ticket.Front, winning.Front)
	backMatched := intersect(ticket.Back, winning.Back)

	tier, ok := Classify(len(frontMatched), len(backMatched))
	if !ok {
		return models.ScoredTicket{}, false
	}
	return models.ScoredTicket{
		Ticket:       ticket,
		Tier:         tier,
		FrontMatched: frontMatched,
		BackMatched:  backMatched,
	}, true
}

// Score classifies every ticket and aggregates the result. The breakdown
// always lists all nine tiers.
func (e *Engine) Score(tickets []models.Ticket, winning models.Draw) models.SetResult {
	result := models.SetResult{
		TicketCount: len(tickets),
		Breakdown:   make(map[models.Tier]int, len(models.Tiers)),
		Winners:     []models.ScoredTicket{},
	}
	for _, tier := range models.Tiers {
		result.Breakdown[tier] = 0
	}

	for _, ticket := range tickets {
		scored, ok := e.ScoreTicket(ticket, winning)
		if !ok {
			continue
		}
		result.Prize += e.table[scored.Tier]
		result.Breakdown[scored.Tier]++
		result.Winners = append(result.Winners, scored)
	}
	return result
}

// intersect returns the members of a that are in b, in a's order.
func intersect(a, b []int) []int {
	set := make(map[int]struct{}, len(b))
	for _, n := range b {
		set[n] = struct{}{}
	}
	out := []int{}
	seen := make(map[int]struct{}, len(a))
	for _, n := range a {
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		if _, ok := set[n]; ok {
			out = append(out, n)
		}
	}
	return out
}
