package models

import (
	"errors"
	"fmt"
	"time"
)

// Tier is one of the nine DLT prize classes. 1 is the jackpot.
type Tier int

// ErrNoTier is returned by Tier.Validate for values outside 1-9.
var ErrNoTier = errors.New("tier must be between 1 and 9")

// Tiers lists every prize class in order.
var Tiers = []Tier{1, 2, 3, 4, 5, 6, 7, 8, 9}

var tierLabels = [...]string{"", "一等奖", "二等奖", "三等奖", "四等奖", "五等奖", "六等奖", "七等奖", "八等奖", "九等奖"}

// Validate checks the tier is within 1-9.
func (t Tier) Validate() error {
	if t < 1 || t > 9 {
		return ErrNoTier
	}
	return nil
}

// Label returns the display name, e.g. "三等奖".
func (t Tier) Label() string {
	if t.Validate() != nil {
		return fmt.Sprintf("%d等奖", int(t))
	}
	return tierLabels[t]
}

// ScoredTicket is a winning ticket with the numbers that matched the draw.
type ScoredTicket struct {
	Ticket       Ticket `json:"ticket"`
	Tier         Tier   `json:"tier"`
	FrontMatched []int  `json:"front_matched"`
	BackMatched  []int  `json:"back_matched"`
}

// SetResult summarises one recommendation set (discrete or complex) against a draw.
type SetResult struct {
	TicketCount int            `json:"ticket_count"`
	Prize       int64          `json:"prize"`
	Breakdown   map[Tier]int   `json:"breakdown"` // every tier present, zero counts included
	Winners     []ScoredTicket `json:"winners"`
}

// Evaluation is one run's result: both recommendation sets scored against the evaluation draw.
type Evaluation struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	EvalPeriod   string    `json:"eval_period"`
	CutoffPeriod string    `json:"cutoff_period"`
	ReportPath   string    `json:"report_path"`
	Winning      Draw      `json:"winning"`
	Discrete     SetResult `json:"discrete"`
	Complex      SetResult `json:"complex"`
	TotalPrize   int64     `json:"total_prize"`
	Warnings     []string  `json:"warnings,omitempty"`
}

// Validate checks that all evaluation fields are valid.
func (e *Evaluation) Validate() error {
	if e.ID == "" {
		return errors.New("evaluation ID must not be empty")
	}
	if e.EvalPeriod == "" || e.CutoffPeriod == "" {
		return errors.New("evaluation and cutoff periods must not be empty")
	}
	if e.EvalPeriod == e.CutoffPeriod {
		return errors.New("evaluation period must differ from cutoff period")
	}
	if err := e.Winning.Validate(); err != nil {
		return fmt.Errorf("invalid winning draw: %w", err)
	}
	if e.Winning.Period != e.EvalPeriod {
		return errors.New("winning draw must belong to the evaluation period")
	}
	if e.TotalPrize != e.Discrete.Prize+e.Complex.Prize {
		return errors.New("total prize must equal discrete + complex prize")
	}
	if e.CreatedAt.After(time.Now()) {
		return errors.New("created at must not be in the future")
	}
	return nil
}
