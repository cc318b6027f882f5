// Package evaluator runs one evaluation: it loads the draw history, finds the analysis
// report written before the newest draw, scores that report's recommendations against
// the draw and records the outcome.
//
// Every failure is returned as a *RunError and recorded in the ledger (and history,
// when configured) before Run returns. Panics are recovered into KindUnexpectedFailure.
package evaluator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/rewired-gh/dltcheck/internal/draws"
	"github.com/rewired-gh/dltcheck/internal/ledger"
	"github.com/rewired-gh/dltcheck/internal/logger"
	"github.com/rewired-gh/dltcheck/internal/models"
	"github.com/rewired-gh/dltcheck/internal/prize"
	"github.com/rewired-gh/dltcheck/internal/recommend"
	"github.com/rewired-gh/dltcheck/internal/report"
	"github.com/rewired-gh/dltcheck/internal/textenc"
)

// Kind classifies a run failure.
type Kind string

const (
	KindMissingSource                Kind = "MissingSource"
	KindInsufficientData             Kind = "InsufficientData"
	KindNoMatchingReport             Kind = "NoMatchingReport"
	KindNoExtractableRecommendations Kind = "NoExtractableRecommendations"
	KindExpansionCapExceeded         Kind = "ExpansionCapExceeded"
	KindUnexpectedFailure            Kind = "UnexpectedFailure"
)

// RunError is a classified run failure. Message is the line written to the ledger.
type RunError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *RunError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// Expected reports whether the failure is a recognised data condition rather than a crash.
func (e *RunError) Expected() bool {
	return e.Kind != KindUnexpectedFailure
}

// DrawSource supplies the draw CSV content.
type DrawSource interface {
	Fetch(ctx context.Context) (string, error)
	Source() string
}

// ReportFinder locates the analysis report whose data cutoff is the given period.
type ReportFinder interface {
	FindMatching(target string) (string, error)
}

// History persists evaluations and run errors.
type History interface {
	AddEvaluation(e *models.Evaluation) error
	AddRunError(kind, message string, at time.Time) error
	Rotate() error
}

// Notifier announces evaluations and run errors.
type Notifier interface {
	SendEvaluation(e *models.Evaluation) error
	SendError(kind, message string) error
}

// Deps are the collaborators of an Evaluator. History and Notifier are optional.
type Deps struct {
	Source    DrawSource
	Reports   ReportFinder
	Expander  *recommend.Expander
	Engine    *prize.Engine
	Ledger    ledger.Writer
	History   History
	Notifier  Notifier
	Encodings []string
}

// Evaluator runs evaluations.
type Evaluator struct {
	deps  Deps
	now   func() time.Time
	newID func() string
}

// New creates an Evaluator.
func New(deps Deps) (*Evaluator, error) {
	switch {
	case deps.Source == nil:
		return nil, errors.New("draw source is required")
	case deps.Reports == nil:
		return nil, errors.New("report finder is required")
	case deps.Engine == nil:
		return nil, errors.New("prize engine is required")
	case deps.Ledger == nil:
		return nil, errors.New("ledger is required")
	}
	if deps.Expander == nil {
		deps.Expander = recommend.NewExpander(recommend.DefaultMaxTickets)
	}
	if len(deps.Encodings) == 0 {
		deps.Encodings = textenc.DefaultEncodings
	}
	return &Evaluator{
		deps:  deps,
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}, nil
}

// Run performs one evaluation. On failure the returned error is always a *RunError
// and has already been recorded.
func (ev *Evaluator) Run(ctx context.Context) (result *models.Evaluation, err error) {
	logger.Info("====== Evaluation run started ======")
	startTime := ev.now()

	defer func() {
		if r := recover(); r != nil {
			runErr := &RunError{
				Kind:    KindUnexpectedFailure,
				Message: fmt.Sprintf("主流程发生未捕获的严重异常: %v\n%s", r, debug.Stack()),
			}
			ev.recordError(runErr)
			result, err = nil, runErr
		}
	}()

	result, err = ev.run(ctx)
	if err != nil {
		var runErr *RunError
		if !errors.As(err, &runErr) {
			runErr = &RunError{Kind: KindUnexpectedFailure, Message: fmt.Sprintf("评估流程失败: %v", err), Err: err}
		}
		ev.recordError(runErr)
		return nil, runErr
	}

	logger.Info("====== Evaluation run finished in %v (total prize %d) ======", ev.now().Sub(startTime), result.TotalPrize)
	return result, nil
}

func (ev *Evaluator) run(ctx context.Context) (*models.Evaluation, error) {
	// Load draw history
	content, err := ev.deps.Source.Fetch(ctx)
	if err != nil {
		return nil, ev.missingDraws(err)
	}

	store, err := draws.Parse(content)
	if err != nil {
		if errors.Is(err, draws.ErrEmptyInput) {
			return nil, ev.missingDraws(err)
		}
		return nil, insufficientData(err)
	}
	for _, issue := range store.Skipped() {
		logger.Warn("Skipped draw row %s", issue)
	}

	evalPeriod, cutoffPeriod, err := store.EvaluationPair()
	if err != nil {
		return nil, insufficientData(err)
	}
	logger.Info("Evaluation period: %s, report cutoff period: %s", evalPeriod, cutoffPeriod)

	// Locate and read the report made before the evaluation draw
	reportPath, err := ev.deps.Reports.FindMatching(cutoffPeriod)
	if err != nil {
		if errors.Is(err, report.ErrNoMatchingReport) {
			return nil, &RunError{
				Kind:    KindNoMatchingReport,
				Message: fmt.Sprintf("未找到数据截止期为 %s 的分析报告。", cutoffPeriod),
				Err:     err,
			}
		}
		return nil, fmt.Errorf("failed to search reports: %w", err)
	}

	reportContent, err := textenc.ReadFile(reportPath, ev.deps.Encodings)
	if err != nil {
		return nil, &RunError{
			Kind:    KindMissingSource,
			Message: fmt.Sprintf("无法读取分析报告文件: %s", reportPath),
			Err:     err,
		}
	}

	// Extract recommendations
	rec := recommend.Parse(reportContent)
	if rec.Skipped > 0 {
		logger.Warn("Skipped %d malformed ticket lines in %s", rec.Skipped, filepath.Base(reportPath))
	}
	logger.Info("Parsed %d discrete tickets, complex pool %d front / %d back", len(rec.Tickets), len(rec.Pool.Fronts), len(rec.Pool.Backs))

	var warnings []string
	complexTickets, err := ev.deps.Expander.Expand(rec.Pool)
	if err != nil {
		var capErr *recommend.CapExceededError
		if !errors.As(err, &capErr) {
			return nil, fmt.Errorf("failed to expand complex pool: %w", err)
		}
		logger.Warn("%s: %v", KindExpansionCapExceeded, err)
		warnings = append(warnings, fmt.Sprintf("复式组合数 %s 超过上限 %d，复式推荐按空处理。", capErr.Combinations, capErr.Limit))
		complexTickets = nil
	}

	if len(rec.Tickets) == 0 && len(complexTickets) == 0 {
		msg := fmt.Sprintf("未能从报告 %s 中解析出任何有效投注。", filepath.Base(reportPath))
		logger.Warn("%s: %s", KindNoExtractableRecommendations, msg)
		warnings = append(warnings, msg)
	}

	// Score both sets
	winning, ok := store.Get(evalPeriod)
	if !ok {
		return nil, fmt.Errorf("draw for period %s disappeared from the store", evalPeriod)
	}
	logger.Info("Winning numbers for %s: front %v back %v", evalPeriod, winning.Front, winning.Back)

	discrete := ev.deps.Engine.Score(rec.Tickets, winning)
	complexResult := ev.deps.Engine.Score(complexTickets, winning)

	evaluation := &models.Evaluation{
		ID:           ev.newID(),
		CreatedAt:    ev.now(),
		EvalPeriod:   evalPeriod,
		CutoffPeriod: cutoffPeriod,
		ReportPath:   reportPath,
		Winning:      winning,
		Discrete:     discrete,
		Complex:      complexResult,
		TotalPrize:   discrete.Prize + complexResult.Prize,
		Warnings:     warnings,
	}

	if err := ev.deps.Ledger.AppendEvaluation(evaluation); err != nil {
		return nil, fmt.Errorf("failed to write evaluation entry: %w", err)
	}
	logger.Info("Evaluation for %s written: discrete %d, complex %d, total %d",
		evalPeriod, discrete.Prize, complexResult.Prize, evaluation.TotalPrize)

	ev.persist(evaluation)
	ev.notify(evaluation)

	return evaluation, nil
}

// missingDraws covers both an unreadable source and one with no content.
func (ev *Evaluator) missingDraws(err error) *RunError {
	return &RunError{
		Kind:    KindMissingSource,
		Message: fmt.Sprintf("无法读取或未找到CSV数据文件: %s", ev.deps.Source.Source()),
		Err:     err,
	}
}

func insufficientData(err error) *RunError {
	return &RunError{
		Kind:    KindInsufficientData,
		Message: "CSV数据不足两期或解析失败，无法进行评估。",
		Err:     err,
	}
}

// persist and notify are best effort; the ledger entry is the record of truth.
func (ev *Evaluator) persist(e *models.Evaluation) {
	if ev.deps.History == nil {
		return
	}
	if err := ev.deps.History.AddEvaluation(e); err != nil {
		logger.Warn("Failed to save evaluation to history: %v", err)
		return
	}
	if err := ev.deps.History.Rotate(); err != nil {
		logger.Warn("Failed to rotate history: %v", err)
	}
}

func (ev *Evaluator) notify(e *models.Evaluation) {
	if ev.deps.Notifier == nil {
		return
	}
	if err := ev.deps.Notifier.SendEvaluation(e); err != nil {
		logger.Warn("Failed to send evaluation notification: %v", err)
	}
}

func (ev *Evaluator) recordError(runErr *RunError) {
	if runErr.Expected() {
		logger.Error("%v", runErr)
	} else {
		logger.Error("CRITICAL %v", runErr)
	}

	if err := ev.deps.Ledger.AppendError(runErr.Message); err != nil {
		logger.Error("Failed to record error in ledger: %v", err)
	}
	if ev.deps.History != nil {
		if err := ev.deps.History.AddRunError(string(runErr.Kind), runErr.Message, ev.now()); err != nil {
			logger.Warn("Failed to save run error to history: %v", err)
		}
	}
	if ev.deps.Notifier != nil {
		if err := ev.deps.Notifier.SendError(string(runErr.Kind), runErr.Message); err != nil {
			logger.Warn("Failed to send error notification: %v", err)
		}
	}
}
