// Package report finds the analysis report that was generated from a given cutoff period.
//
// A report declares its data cutoff with a line like "分析基于数据: 截至 24001 期" and
// carries its generation time in the file name (..._20240101_213000.txt). Among the
// reports that declare the target cutoff, the one with the newest file-name timestamp wins.
package report

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/rewired-gh/dltcheck/internal/logger"
	"github.com/rewired-gh/dltcheck/internal/textenc"
)

// DefaultPattern is the glob for reports written by the upstream analyzer.
const DefaultPattern = "dlt_analysis_output_*.txt"

const timestampLayout = "20060102_150405"

// ErrNoMatchingReport is returned when no report declares the target cutoff period.
var ErrNoMatchingReport = errors.New("no analysis report matches the cutoff period")

var (
	cutoffPattern    = regexp.MustCompile(`分析基于数据:\s*截至\s*(\d+)\s*期`)
	timestampPattern = regexp.MustCompile(`_(\d{8}_\d{6})\.txt$`)
)

// Locator scans a directory of candidate reports.
type Locator struct {
	dir       string
	pattern   string
	encodings []string
}

// NewLocator creates a Locator. An empty pattern uses DefaultPattern.
func NewLocator(dir, pattern string, encodings []string) *Locator {
	if pattern == "" {
		pattern = DefaultPattern
	}
	return &Locator{dir: dir, pattern: pattern, encodings: encodings}
}

type candidate struct {
	path      string
	timestamp time.Time
}

// FindMatching returns the newest report whose declared cutoff equals target.
// Reports with the same timestamp are ordered by path; the lexically greatest wins.
func (l *Locator) FindMatching(target string) (string, error) {
	logger.Info("Searching %s for a report with data cutoff %s", l.dir, target)

	paths, err := filepath.Glob(filepath.Join(l.dir, l.pattern))
	if err != nil {
		return "", fmt.Errorf("invalid report pattern %q: %w", l.pattern, err)
	}

	var candidates []candidate
	for _, path := range paths {
		content, err := textenc.ReadFile(path, l.encodings)
		if err != nil {
			logger.Warn("Skipping unreadable report %s: %v", filepath.Base(path), err)
			continue
		}

		period, ok := DeclaredCutoff(content)
		if !ok || period != target {
			continue
		}

		ts, ok := FileTimestamp(path)
		if !ok {
			logger.Debug("Report %s matches cutoff %s but has no timestamp in its name", filepath.Base(path), target)
			continue
		}
		candidates = append(candidates, candidate{path: path, timestamp: ts})
	}

	if len(candidates) == 0 {
		logger.Warn("No report found with data cutoff %s", target)
		return "", fmt.Errorf("%w: %s", ErrNoMatchingReport, target)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if !candidates[i].timestamp.Equal(candidates[j].timestamp) {
			return candidates[i].timestamp.After(candidates[j].timestamp)
		}
		return candidates[i].path > candidates[j].path
	})

	latest := candidates[0].path
	logger.Info("Found matching report: %s", filepath.Base(latest))
	return latest, nil
}

// DeclaredCutoff extracts the first data cutoff period declared in a report.
func DeclaredCutoff(content string) (string, bool) {
	m := cutoffPattern.FindStringSubmatch(content)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// FileTimestamp parses the generation time embedded in a report file name.
func FileTimestamp(path string) (time.Time, bool) {
	m := timestampPattern.FindStringSubmatch(path)
	if m == nil {
		return time.Time{}, false
	}
	ts, err := time.Parse(timestampLayout, m[1])
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
