package ledger

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/rewired-gh/dltcheck/internal/models"
)

// FormatEvaluation renders an evaluation as a report entry. Numbers of winning
// tickets that matched the draw are wrapped in ** **.
func FormatEvaluation(e *models.Evaluation) string {
	lines := []string{
		fmt.Sprintf("评估时间: %s", e.CreatedAt.Format(timeLayout)),
		fmt.Sprintf("评估期号 (实际开奖): %s", e.EvalPeriod),
		fmt.Sprintf("分析报告数据截止期: %s", e.CutoffPeriod),
		fmt.Sprintf("开奖号码: 前区 %s 后区 %s", FormatNumbers(e.Winning.Front), FormatNumbers(e.Winning.Back)),
		fmt.Sprintf("总奖金: %s 元", humanize.Comma(e.TotalPrize)),
		"",
		"--- 单式推荐详情 ---",
	}
	lines = append(lines, formatSet(e.Discrete, "未中奖")...)
	lines = append(lines, "", "--- 复式推荐详情 ---")
	lines = append(lines, formatSet(e.Complex, "未中奖或未生成投注")...)

	for _, w := range e.Warnings {
		lines = append(lines, "提示: "+flatten(w))
	}
	return strings.Join(lines, "\n")
}

func formatSet(r models.SetResult, none string) []string {
	if len(r.Winners) == 0 {
		return []string{none}
	}
	lines := []string{fmt.Sprintf("奖金: %s元 | 明细: %s", humanize.Comma(r.Prize), FormatBreakdown(r.Breakdown))}
	for _, w := range r.Winners {
		lines = append(lines, FormatWinner(w))
	}
	return lines
}

// FormatBreakdown lists non-zero tiers in tier order, e.g. "1等奖x1, 9等奖x3".
func FormatBreakdown(breakdown map[models.Tier]int) string {
	var parts []string
	for _, tier := range models.Tiers {
		if n := breakdown[tier]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d等奖x%d", tier, n))
		}
	}
	return strings.Join(parts, ", ")
}

// FormatWinner renders one winning ticket with its matched numbers highlighted.
func FormatWinner(w models.ScoredTicket) string {
	return fmt.Sprintf("  - 前区 [%s] 后区 [%s]  -> %d等奖",
		highlight(w.Ticket.Front, w.FrontMatched),
		highlight(w.Ticket.Back, w.BackMatched),
		w.Tier)
}

// FormatNumbers renders numbers as "[01, 05, 12]".
func FormatNumbers(nums []int) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = fmt.Sprintf("%02d", n)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func highlight(nums, matched []int) string {
	hit := make(map[int]bool, len(matched))
	for _, n := range matched {
		hit[n] = true
	}
	parts := make([]string, len(nums))
	for i, n := range nums {
		if hit[n] {
			parts[i] = fmt.Sprintf("**%02d**", n)
		} else {
			parts[i] = fmt.Sprintf("%02d", n)
		}
	}
	return strings.Join(parts, " ")
}
