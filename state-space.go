package jsqps

// state-space.go enumerates the occupancy tuples of an R-server farm truncated
// at Limit customers per server.  The tuples live in one flat arena and are
// ordered lexicographically, so the index of a tuple is its value read as an
// R-digit number in base Limit.

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// StateSpace is the indexed container of all R-tuples with coordinates in [0, Limit)
type StateSpace struct {
	servers int
	limit   int
	size    int
	arena   []int // size*servers coordinates, tuple idx at arena[idx*servers:(idx+1)*servers]
}

// NewStateSpace enumerates the tuples of an R-server farm truncated at limit.
// It fails with ErrInvalidConfiguration if servers < 1, limit < 1, or if
// limit^servers does not fit in an int
func NewStateSpace(servers, limit int) (*StateSpace, error) {
	if servers < 1 {
		return nil, configErr("servers", servers, "must be at least 1")
	}
	if limit < 1 {
		return nil, configErr("limit", limit, "must be at least 1")
	}
	size := 1
	for i := 0; i < servers; i++ {
		if size > math.MaxInt/limit {
			return nil, configErr("limit", limit, fmt.Sprintf("gives more than MaxInt states with %d servers", servers))
		}
		size *= limit
	}

	ss := new(StateSpace)
	ss.servers = servers
	ss.limit = limit
	ss.size = size
	ss.arena = make([]int, size*servers)

	// odometer: each tuple is its predecessor plus one in the last digit, with carries
	digits := make([]int, servers)
	for idx := 0; idx < size; idx++ {
		copy(ss.arena[idx*servers:], digits)
		for pos := servers - 1; pos >= 0; pos-- {
			digits[pos]++
			if digits[pos] < limit {
				break
			}
			digits[pos] = 0
		}
	}
	return ss, nil
}

// Servers returns R
func (ss *StateSpace) Servers() int { return ss.servers }

// Limit returns the per-server truncation
func (ss *StateSpace) Limit() int { return ss.limit }

// Size returns the number of states, Limit^R
func (ss *StateSpace) Size() int { return ss.size }

// State returns the tuple with the given index.  The slice aliases the arena and must not be modified
func (ss *StateSpace) State(idx int) []int {
	return ss.arena[idx*ss.servers : (idx+1)*ss.servers : (idx+1)*ss.servers]
}

// Index returns the index of a tuple, and false if the tuple has the wrong
// length or a coordinate outside [0, Limit)
func (ss *StateSpace) Index(state []int) (int, bool) {
	if len(state) != ss.servers {
		return -1, false
	}
	idx := 0
	for _, v := range state {
		if v < 0 || v >= ss.limit {
			return -1, false
		}
		idx = idx*ss.limit + v
	}
	return idx, true
}

// stride returns the index distance between tuples differing by one in coordinate pos
func (ss *StateSpace) stride(pos int) int {
	s := 1
	for i := ss.servers - 1; i > pos; i-- {
		s *= ss.limit
	}
	return s
}

// minOccupancy returns the smallest coordinate of a state and the number of servers holding it
func minOccupancy(state []int) (int, int) {
	least := state[0]
	tied := 1
	for _, v := range state[1:] {
		if v < least {
			least = v
			tied = 1
		} else if v == least {
			tied++
		}
	}
	return least, tied
}

// totalOccupancy returns the number of customers in the farm
func totalOccupancy(state []int) int {
	sum := 0
	for _, v := range state {
		sum += v
	}
	return sum
}

// stateString renders a tuple as "(a,b,c)" for logs and error messages
func stateString(state []int) string {
	parts := make([]string, len(state))
	for i, v := range state {
		parts[i] = strconv.Itoa(v)
	}
	return "(" + strings.Join(parts, ",") + ")"
}
