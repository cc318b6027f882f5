package models

import (
	"testing"
	"time"
)

func TestDrawValidate(t *testing.T) {
	tests := []struct {
		name    string
		draw    Draw
		wantErr bool
	}{
		{
			name:    "valid draw",
			draw:    Draw{Period: "24001", Date: "2024-01-01", Front: []int{1, 5, 12, 30, 35}, Back: []int{3, 12}},
			wantErr: false,
		},
		{
			name:    "short period",
			draw:    Draw{Period: "241", Front: []int{1, 5, 12, 30, 35}, Back: []int{3, 12}},
			wantErr: true,
		},
		{
			name:    "front out of range",
			draw:    Draw{Period: "24001", Front: []int{1, 5, 12, 30, 36}, Back: []int{3, 12}},
			wantErr: true,
		},
		{
			name:    "back repeated",
			draw:    Draw{Period: "24001", Front: []int{1, 5, 12, 30, 35}, Back: []int{3, 3}},
			wantErr: true,
		},
		{
			name:    "too few fronts",
			draw:    Draw{Period: "24001", Front: []int{1, 5, 12, 30}, Back: []int{3, 4}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.draw.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Draw.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewTicketSorts(t *testing.T) {
	ticket, err := NewTicket([]int{9, 3, 1, 22, 7}, []int{11, 2})
	if err != nil {
		t.Fatalf("NewTicket failed: %v", err)
	}
	want := []int{1, 3, 7, 9, 22}
	for i, n := range want {
		if ticket.Front[i] != n {
			t.Fatalf("Front = %v, want %v", ticket.Front, want)
		}
	}
	if ticket.Back[0] != 2 || ticket.Back[1] != 11 {
		t.Errorf("Back = %v, want [2 11]", ticket.Back)
	}

	if _, err := NewTicket([]int{1, 2, 3, 4, 0}, []int{1, 2}); err == nil {
		t.Error("expected error for front number 0")
	}
}

func TestComplexPoolUsable(t *testing.T) {
	if (ComplexPool{}).Usable() {
		t.Error("empty pool must not be usable")
	}
	if !(ComplexPool{}).Empty() {
		t.Error("zero pool should be empty")
	}
	pool := ComplexPool{Fronts: []int{1, 2, 3, 4, 5}, Backs: []int{1}}
	if pool.Usable() {
		t.Error("pool with one back must not be usable")
	}
	pool.Backs = append(pool.Backs, 2)
	if !pool.Usable() {
		t.Error("5+2 pool should be usable")
	}
}

func TestTierLabel(t *testing.T) {
	if got := Tier(1).Label(); got != "一等奖" {
		t.Errorf("Tier(1).Label() = %s", got)
	}
	if got := Tier(9).Label(); got != "九等奖" {
		t.Errorf("Tier(9).Label() = %s", got)
	}
	if err := Tier(10).Validate(); err == nil {
		t.Error("tier 10 should be invalid")
	}
}

func TestEvaluationValidate(t *testing.T) {
	winning := Draw{Period: "24002", Front: []int{1, 2, 3, 4, 5}, Back: []int{6, 7}}
	valid := Evaluation{
		ID:           "eval-1",
		CreatedAt:    time.Now().Add(-time.Minute),
		EvalPeriod:   "24002",
		CutoffPeriod: "24001",
		Winning:      winning,
		Discrete:     SetResult{Prize: 10},
		Complex:      SetResult{Prize: 5},
		TotalPrize:   15,
	}

	tests := []struct {
		name    string
		mutate  func(e *Evaluation)
		wantErr bool
	}{
		{name: "valid evaluation", mutate: func(e *Evaluation) {}, wantErr: false},
		{name: "empty ID", mutate: func(e *Evaluation) { e.ID = "" }, wantErr: true},
		{name: "same periods", mutate: func(e *Evaluation) { e.CutoffPeriod = "24002" }, wantErr: true},
		{name: "total mismatch", mutate: func(e *Evaluation) { e.TotalPrize = 1 }, wantErr: true},
		{name: "winning from other period", mutate: func(e *Evaluation) { e.Winning.Period = "24001" }, wantErr: true},
		{name: "future created at", mutate: func(e *Evaluation) { e.CreatedAt = time.Now().Add(time.Hour) }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := valid
			tt.mutate(&e)
			err := e.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Evaluation.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
