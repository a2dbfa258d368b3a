package tables

import (
	"context"
	"sort"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/google/uuid"
)

const solverCheckEvery = 256

// Candidate is a table the solver may use.
type Candidate struct {
	TableID  uuid.UUID `json:"table_id"`
	Number   int       `json:"number"`
	Capacity int       `json:"capacity"`
}

// Combination is a set of tables whose capacity covers a party, ordered by
// table number.
type Combination struct {
	Tables        []Candidate `json:"tables"`
	TotalCapacity int         `json:"total_capacity"`
}

func (c Combination) TableIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(c.Tables))
	for _, t := range c.Tables {
		ids = append(ids, t.TableID)
	}
	return ids
}

func (c Combination) assigned() []AssignedTable {
	out := make([]AssignedTable, 0, len(c.Tables))
	for _, t := range c.Tables {
		out = append(out, AssignedTable(t))
	}
	return out
}

// Solver searches table combinations for a party. Preference is fewest
// tables, then least overshoot, then lowest sum of table numbers, then the
// lexicographically smallest list of numbers.
type Solver struct {
	timeout time.Duration
	logger  aqm.Logger
}

func NewSolver(timeout time.Duration, logger aqm.Logger) *Solver {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &Solver{timeout: timeout, logger: logger}
}

// Solve returns the preferred combination of candidates covering party. It
// reports false when no subset covers the party or when the deadline passes
// before the search completes.
func (s *Solver) Solve(ctx context.Context, party int, candidates []Candidate) (Combination, bool) {
	if party <= 0 {
		return Combination{}, false
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	pool := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Capacity > 0 {
			pool = append(pool, c)
		}
	}
	sort.Slice(pool, func(i, j int) bool {
		if pool[i].Capacity != pool[j].Capacity {
			return pool[i].Capacity > pool[j].Capacity
		}
		if pool[i].Number != pool[j].Number {
			return pool[i].Number < pool[j].Number
		}
		return pool[i].TableID.String() < pool[j].TableID.String()
	})

	// The k largest tables are the best any k-subset can do, so the first k
	// whose prefix covers the party is the minimum table count.
	k, prefix := 0, 0
	for k < len(pool) && prefix < party {
		prefix += pool[k].Capacity
		k++
	}
	if prefix < party {
		return Combination{}, false
	}

	search := newSearch(ctx, party, k, pool)
	search.run(0, 0)

	if search.aborted {
		s.logger.Debug("combination search deadline exceeded", "party_size", party, "tables", len(pool), "size", k)
		return Combination{}, false
	}
	if search.best == nil {
		return Combination{}, false
	}

	picked := make([]Candidate, 0, k)
	for _, idx := range search.best {
		picked = append(picked, pool[idx])
	}
	sort.Slice(picked, func(i, j int) bool {
		if picked[i].Number != picked[j].Number {
			return picked[i].Number < picked[j].Number
		}
		return picked[i].TableID.String() < picked[j].TableID.String()
	})

	return Combination{Tables: picked, TotalCapacity: search.bestSum}, true
}

// search is a branch and bound over k-subsets of a pool sorted by capacity
// descending.
type search struct {
	ctx   context.Context
	party int
	k     int
	pool  []Candidate

	// tail[r] is the sum of the r smallest capacities.
	tail []int

	chosen  []int
	nodes   int
	aborted bool

	best       []int
	bestSum    int
	bestNumber int
	bestKey    []int
}

func newSearch(ctx context.Context, party, k int, pool []Candidate) *search {
	tail := make([]int, k+1)
	for r := 1; r <= k; r++ {
		tail[r] = tail[r-1] + pool[len(pool)-r].Capacity
	}
	return &search{
		ctx:    ctx,
		party:  party,
		k:      k,
		pool:   pool,
		tail:   tail,
		chosen: make([]int, 0, k),
	}
}

func (s *search) run(from, sum int) {
	if s.aborted {
		return
	}
	s.nodes++
	if s.nodes%solverCheckEvery == 0 && s.ctx.Err() != nil {
		s.aborted = true
		return
	}

	left := s.k - len(s.chosen)
	if left == 0 {
		if sum >= s.party {
			s.offer(sum)
		}
		return
	}

	for i := from; i <= len(s.pool)-left; i++ {
		// Largest reachable sum from here only shrinks as i grows.
		if sum+s.upper(i, left) < s.party {
			return
		}
		// Cheapest completion through i; later tables are smaller and may
		// still fit under the best sum.
		if s.best != nil && sum+s.pool[i].Capacity+s.tail[left-1] > s.bestSum {
			continue
		}

		s.chosen = append(s.chosen, i)
		s.run(i+1, sum+s.pool[i].Capacity)
		s.chosen = s.chosen[:len(s.chosen)-1]

		if s.aborted {
			return
		}
	}
}

func (s *search) upper(from, left int) int {
	total := 0
	for i := from; i < from+left; i++ {
		total += s.pool[i].Capacity
	}
	return total
}

func (s *search) offer(sum int) {
	number := 0
	key := make([]int, 0, len(s.chosen))
	for _, idx := range s.chosen {
		number += s.pool[idx].Number
		key = append(key, s.pool[idx].Number)
	}
	sort.Ints(key)

	if s.best != nil {
		if sum > s.bestSum {
			return
		}
		if sum == s.bestSum {
			if number > s.bestNumber {
				return
			}
			if number == s.bestNumber && !lexLess(key, s.bestKey) {
				return
			}
		}
	}

	s.best = append(s.best[:0], s.chosen...)
	s.bestSum = sum
	s.bestNumber = number
	s.bestKey = key
}

func lexLess(a, b []int) bool {
	for i := range a {
		if i >= len(b) {
			return false
		}
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
