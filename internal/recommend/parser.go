// Package recommend extracts recommendations from analysis report text and expands
// complex pools into discrete tickets.
//
// The line formats are owned by the upstream report generator:
//
//	注 1: 前区 [01 05 12 30 35] 后区 [03 12] (综合分: 12.34)
//	前区 (Top 7): 01 05 12 18 22 30 35
//	后区 (Top 7): 02 03 05 07 09 11 12
package recommend

import (
	"regexp"
	"strings"

	"github.com/rewired-gh/dltcheck/internal/draws"
	"github.com/rewired-gh/dltcheck/internal/models"
)

var (
	ticketPattern       = regexp.MustCompile(`注\s*\d+:\s*前区\s*\[([\d\s]+)\]\s*后区\s*\[([\d\s]+)\]`)
	complexFrontPattern = regexp.MustCompile(`前区\s*\(Top\s*\d+\):\s*([\d\s]+)`)
	complexBackPattern  = regexp.MustCompile(`后区\s*\(Top\s*\d+\):\s*([\d\s]+)`)
)

// Recommendations is everything extracted from one report.
type Recommendations struct {
	Tickets []models.Ticket
	Pool    models.ComplexPool
	// Skipped counts discrete ticket lines that matched the layout but not the field counts.
	Skipped int
}

// Parse extracts discrete tickets and the complex pool from report content.
// Malformed ticket lines are skipped; a missing pool side is left empty.
func Parse(content string) Recommendations {
	var rec Recommendations

	for _, m := range ticketPattern.FindAllStringSubmatch(content, -1) {
		front, errF := draws.ParseNumbers(m[1], "")
		back, errB := draws.ParseNumbers(m[2], "")
		if errF != nil || errB != nil || len(front) != models.FrontCount || len(back) != models.BackCount {
			rec.Skipped++
			continue
		}
		rec.Tickets = append(rec.Tickets, models.Ticket{
			Front: models.SortedCopy(front),
			Back:  models.SortedCopy(back),
		})
	}

	rec.Pool.Fronts = parsePoolLine(complexFrontPattern, content)
	rec.Pool.Backs = parsePoolLine(complexBackPattern, content)
	return rec
}

func parsePoolLine(re *regexp.Regexp, content string) []int {
	m := re.FindStringSubmatch(content)
	if m == nil {
		return nil
	}
	nums, err := draws.ParseNumbers(strings.TrimSpace(m[1]), "")
	if err != nil || len(nums) == 0 {
		return nil
	}
	return models.SortedCopy(nums)
}
