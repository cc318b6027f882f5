package ledger

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewired-gh/dltcheck/internal/logger"
	"github.com/rewired-gh/dltcheck/internal/models"
)

func evaluation(period string, total int64) *models.Evaluation {
	breakdown := map[models.Tier]int{}
	for _, tier := range models.Tiers {
		breakdown[tier] = 0
	}
	winner := models.ScoredTicket{
		Ticket:       models.Ticket{Front: []int{1, 2, 3, 9, 10}, Back: []int{6, 7}},
		Tier:         6,
		FrontMatched: []int{1, 2, 3},
		BackMatched:  []int{6, 7},
	}
	discrete := models.SetResult{TicketCount: 1, Breakdown: breakdown}
	if total > 0 {
		discrete.Prize = total
		discrete.Breakdown = map[models.Tier]int{6: 1}
		discrete.Winners = []models.ScoredTicket{winner}
	}
	return &models.Evaluation{
		ID:           "id-" + period,
		CreatedAt:    time.Date(2024, 1, 3, 21, 30, 0, 0, time.Local),
		EvalPeriod:   period,
		CutoffPeriod: "24001",
		Winning:      models.Draw{Period: period, Front: []int{1, 2, 3, 4, 5}, Back: []int{6, 7}},
		Discrete:     discrete,
		Complex:      models.SetResult{Breakdown: breakdown},
		TotalPrize:   total,
	}
}

func TestFormatEvaluation(t *testing.T) {
	e := evaluation("24002", 200)
	e.Warnings = []string{"complex pool would generate 232560 tickets"}

	got := FormatEvaluation(e)

	assert.Contains(t, got, "评估时间: 2024-01-03 21:30:00")
	assert.Contains(t, got, "评估期号 (实际开奖): 24002")
	assert.Contains(t, got, "分析报告数据截止期: 24001")
	assert.Contains(t, got, "开奖号码: 前区 [01, 02, 03, 04, 05] 后区 [06, 07]")
	assert.Contains(t, got, "总奖金: 200 元")
	assert.Contains(t, got, "奖金: 200元 | 明细: 6等奖x1")
	assert.Contains(t, got, "  - 前区 [**01** **02** **03** 09 10] 后区 [**06** **07**]  -> 6等奖")
	assert.Contains(t, got, "未中奖或未生成投注")
	assert.Contains(t, got, "提示: complex pool would generate 232560 tickets")
}

func TestFormatEvaluationThousands(t *testing.T) {
	e := evaluation("24002", 10_000_200)
	assert.Contains(t, FormatEvaluation(e), "总奖金: 10,000,200 元")
}

func TestParseRenderRoundTrip(t *testing.T) {
	doc := Document{
		Entries: []string{"entry one\nline 2", "entry two"},
		Errors:  []string{"[t2] second", "[t1] first"},
	}
	parsed := ParseDocument(doc.Render())
	assert.Equal(t, doc, parsed)
}

func TestParseEmptyDocument(t *testing.T) {
	parsed := ParseDocument(Document{}.Render())
	assert.Empty(t, parsed.Entries)
	assert.Empty(t, parsed.Errors)
}

func TestAppendKeepsNewestFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latest_dlt_calculation.txt")
	l := New(path, 0, 0)

	require.NoError(t, l.AppendEvaluation(evaluation("24002", 0)))
	require.NoError(t, l.AppendEvaluation(evaluation("24003", 200)))
	require.NoError(t, l.AppendError("no report\nsecond line"))

	doc, err := l.Read()
	require.NoError(t, err)
	require.Len(t, doc.Entries, 2)
	assert.Contains(t, doc.Entries[0], "评估期号 (实际开奖): 24003")
	assert.Contains(t, doc.Entries[1], "评估期号 (实际开奖): 24002")
	require.Len(t, doc.Errors, 1)
	assert.True(t, strings.HasSuffix(doc.Errors[0], "] no report | second line"))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestAppendEnforcesCaps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")
	l := New(path, 10, 20)

	for i := 0; i < 15; i++ {
		require.NoError(t, l.AppendEvaluation(evaluation(fmt.Sprintf("%05d", 24000+i), 0)))
	}
	for i := 0; i < 25; i++ {
		require.NoError(t, l.AppendError(fmt.Sprintf("error %d", i)))
	}

	doc, err := l.Read()
	require.NoError(t, err)
	require.Len(t, doc.Entries, 10)
	require.Len(t, doc.Errors, 20)
	assert.Contains(t, doc.Entries[0], "24014")
	assert.Contains(t, doc.Entries[9], "24005")
	assert.True(t, strings.HasSuffix(doc.Errors[0], "error 24"))
	assert.True(t, strings.HasSuffix(doc.Errors[19], "error 5"))
}

func TestReadMissingFile(t *testing.T) {
	doc, err := New(filepath.Join(t.TempDir(), "none.txt"), 0, 0).Read()
	require.NoError(t, err)
	assert.Empty(t, doc.Entries)
}

func TestFormatBreakdownOrder(t *testing.T) {
	got := FormatBreakdown(map[models.Tier]int{9: 3, 1: 1, 5: 0})
	assert.Equal(t, "1等奖x1, 9等奖x3", got)
}

func TestFormatEvaluationZeroAmountTier(t *testing.T) {
	e := evaluation("24002", 200)
	e.Discrete.Prize = 0
	e.TotalPrize = 0

	got := FormatEvaluation(e)

	assert.Contains(t, got, "奖金: 0元 | 明细: 6等奖x1")
	assert.Contains(t, got, "  - 前区 [**01** **02** **03** 09 10] 后区 [**06** **07**]  -> 6等奖")
	assert.NotContains(t, got, "--- 单式推荐详情 ---\n未中奖")
}

func TestAppendWarnsWhenDiscardingUnreadableReport(t *testing.T) {
	var buf bytes.Buffer
	logger.InitWriter(&buf, "warn", "json")
	t.Cleanup(func() { logger.Init("info", "text") })

	// A directory in place of the report cannot be read or replaced.
	path := filepath.Join(t.TempDir(), "report.txt")
	require.NoError(t, os.MkdirAll(filepath.Join(path, "child"), 0o755))

	err := New(path, 10, 20).AppendError("no report")
	assert.Error(t, err)
	assert.Contains(t, buf.String(), "Discarding unreadable report")
	assert.Contains(t, buf.String(), path)
}
