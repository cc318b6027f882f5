package recommend

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/rewired-gh/dltcheck/internal/models"
)

// DefaultMaxTickets is the default cap on the number of tickets a pool may expand to.
const DefaultMaxTickets = 20000

// ErrExpansionCapExceeded matches *CapExceededError.
var ErrExpansionCapExceeded = errors.New("complex expansion exceeds ticket cap")

// CapExceededError reports an oversized pool. No tickets are produced in that case.
type CapExceededError struct {
	Combinations *big.Int
	Limit        int
}

func (e *CapExceededError) Error() string {
	return fmt.Sprintf("complex pool would generate %s tickets, over the limit of %d", e.Combinations, e.Limit)
}

func (e *CapExceededError) Is(target error) bool {
	return target == ErrExpansionCapExceeded
}

// Expander turns a complex pool into every discrete ticket it covers.
type Expander struct {
	maxTickets int
}

// NewExpander creates an Expander. maxTickets <= 0 uses DefaultMaxTickets.
func NewExpander(maxTickets int) *Expander {
	if maxTickets <= 0 {
		maxTickets = DefaultMaxTickets
	}
	return &Expander{maxTickets: maxTickets}
}

// Count returns C(|fronts|,5) * C(|backs|,2).
func Count(pool models.ComplexPool) *big.Int {
	n := Binomial(len(pool.Fronts), models.FrontCount)
	return n.Mul(n, Binomial(len(pool.Backs), models.BackCount))
}

// Binomial returns C(n, k), zero when k is out of range.
func Binomial(n, k int) *big.Int {
	if k < 0 || k > n {
		return big.NewInt(0)
	}
	return new(big.Int).Binomial(int64(n), int64(k))
}

// Expand returns all 5-front x 2-back combinations of the pool in lexicographic order.
// An undersized pool yields nil with no error. A pool over the cap yields nil and a
// *CapExceededError; the count is computed before anything is materialised.
func (e *Expander) Expand(pool models.ComplexPool) ([]models.Ticket, error) {
	if !pool.Usable() {
		return nil, nil
	}

	fronts := dedupe(pool.Fronts)
	backs := dedupe(pool.Backs)
	sized := models.ComplexPool{Fronts: fronts, Backs: backs}
	if !sized.Usable() {
		return nil, nil
	}

	total := Count(sized)
	if total.Cmp(big.NewInt(int64(e.maxTickets))) > 0 {
		return nil, &CapExceededError{Combinations: total, Limit: e.maxTickets}
	}

	frontCombos := combinations(fronts, models.FrontCount)
	backCombos := combinations(backs, models.BackCount)

	tickets := make([]models.Ticket, 0, int(total.Int64()))
	for _, f := range frontCombos {
		for _, b := range backCombos {
			tickets = append(tickets, models.Ticket{Front: f, Back: b})
		}
	}
	return tickets, nil
}

// combinations returns every k-subset of sorted in lexicographic index order.
// Each subset is a fresh slice and inherits the ascending order of sorted.
func combinations(sorted []int, k int) [][]int {
	n := len(sorted)
	if k > n {
		return nil
	}
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}

	var out [][]int
	for {
		combo := make([]int, k)
		for i, j := range idx {
			combo[i] = sorted[j]
		}
		out = append(out, combo)

		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return out
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}

func dedupe(nums []int) []int {
	sorted := models.SortedCopy(nums)
	out := sorted[:0]
	for i, n := range sorted {
		if i == 0 || n != sorted[i-1] {
			out = append(out, n)
		}
	}
	return out
}
