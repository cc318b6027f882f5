package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDraws = "期号,日期,前区,后区\n" +
	`24001,2024-01-01,"09,10,11,12,13","01,02"` + "\n" +
	`24002,2024-01-03,"01,02,03,04,05","06,07"` + "\n"

const testReport = `报告生成时间: 2024-01-02 21:30:00
分析基于数据: 截至 24001 期 (共 2 期)
  注 1: 前区 [01 02 03 04 05] 后区 [06 07] (综合分: 1.00)
  注 2: 前区 [01 02 03 04 06] 后区 [06 08] (综合分: 0.50)
`

type workspace struct {
	dir    string
	config string
	ledger string
}

func newWorkspace(t *testing.T, drawCSV string) workspace {
	t.Helper()
	dir := t.TempDir()
	w := workspace{
		dir:    dir,
		config: filepath.Join(dir, "config.yaml"),
		ledger: filepath.Join(dir, "latest_dlt_calculation.txt"),
	}

	if drawCSV != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "daletou.csv"), []byte(drawCSV), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dlt_analysis_output_20240102_213000.txt"), []byte(testReport), 0o644))

	cfg := fmt.Sprintf(`
draws:
  path: %q
reports:
  dir: %q
ledger:
  path: %q
history:
  enabled: true
  db_path: %q
logging:
  level: "error"
`, filepath.Join(dir, "daletou.csv"), dir, w.ledger, filepath.Join(dir, "history.db"))
	require.NoError(t, os.WriteFile(w.config, []byte(cfg), 0o644))
	return w
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRunWritesLedger(t *testing.T) {
	w := newWorkspace(t, testDraws)

	_, err := executeCommand(t, "run", "--config", w.config)
	require.NoError(t, err)

	content, err := os.ReadFile(w.ledger)
	require.NoError(t, err)
	assert.Contains(t, string(content), "==== 评估记录 ====")
	assert.Contains(t, string(content), "评估期号 (实际开奖): 24002")
	assert.Contains(t, string(content), "总奖金: 10,000,300 元")

	out, err := executeCommand(t, "history", "--config", w.config)
	require.NoError(t, err)
	assert.Contains(t, out, "期号 24002 (截止 24001)")

	out, err = executeCommand(t, "history", "--config", w.config, "--period", "24002")
	require.NoError(t, err)
	assert.Contains(t, out, "评估期号 (实际开奖): 24002")
	assert.Contains(t, out, "**01** **02** **03** **04** **05**")

	_, err = executeCommand(t, "history", "--config", w.config, "--period", "23000")
	assert.Error(t, err)
}

func TestRootDefaultsToRun(t *testing.T) {
	w := newWorkspace(t, testDraws)

	_, err := executeCommand(t, "--config", w.config)
	require.NoError(t, err)
	assert.FileExists(t, w.ledger)
}

func TestRunExpectedFailureExitsCleanly(t *testing.T) {
	w := newWorkspace(t, "")

	_, err := executeCommand(t, "run", "--config", w.config)
	require.NoError(t, err)

	content, err := os.ReadFile(w.ledger)
	require.NoError(t, err)
	assert.Contains(t, string(content), "==== 错误日志 ====")
	assert.Contains(t, string(content), "无法读取或未找到CSV数据文件")

	out, err := executeCommand(t, "history", "--errors", "--config", w.config)
	require.NoError(t, err)
	assert.Contains(t, out, "MissingSource")
}

func TestRunInvalidConfig(t *testing.T) {
	w := newWorkspace(t, testDraws)

	_, err := executeCommand(t, "run", "--config", w.config, "--log-level", "loud")
	assert.Error(t, err)
}

func TestCheckCommand(t *testing.T) {
	w := newWorkspace(t, testDraws)

	out, err := executeCommand(t, "check", "--config", w.config, "--front", "5,4,3,2,1", "--back", "6 8")
	require.NoError(t, err)
	assert.Contains(t, out, "期号 24002")
	assert.Contains(t, out, "二等奖 300,000 元")

	out, err = executeCommand(t, "check", "--config", w.config, "--period", "24001", "--front", "1,2,3,4,5", "--back", "6,7")
	require.NoError(t, err)
	assert.Contains(t, out, "未中奖")

	_, err = executeCommand(t, "check", "--config", w.config, "--period", "23000", "--front", "1,2,3,4,5", "--back", "6,7")
	assert.Error(t, err)
}

func TestParseTicket(t *testing.T) {
	tests := []struct {
		name    string
		front   string
		back    string
		wantErr bool
	}{
		{"commas", "35,1,12,7,20", "9,2", false},
		{"spaces", "01 02 03 04 05", "06 07", false},
		{"mixed", "1, 2, 3, 4, 5", "6, 7", false},
		{"four fronts", "1,2,3,4", "6,7", true},
		{"out of range", "1,2,3,4,36", "6,7", true},
		{"duplicate back", "1,2,3,4,5", "7,7", true},
		{"not a number", "1,2,x,4,5", "6,7", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticket, err := parseTicket(tt.front, tt.back)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, ticket.Front, 5)
			assert.Len(t, ticket.Back, 2)
			assert.IsIncreasing(t, ticket.Front)
		})
	}
}
