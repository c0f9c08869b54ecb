package oracle

import "time"

// Branch kinds.
const (
	BranchTime  = "time"
	BranchAbove = "above"
	BranchBelow = "below"
)

// Branch is the evaluated state of one sub-condition together with the
// readings that decided it.
type Branch struct {
	Kind      string `json:"kind"`
	Predicate string `json:"predicate"`
	Decision
	Prices []PriceReading `json:"prices,omitempty"`
	Times  []TimeReading  `json:"times,omitempty"`
}

// Report is the result of one oracle round. Absent sub-conditions have nil branches.
type Report struct {
	RoundID   string    `json:"roundId"`
	CheckedAt time.Time `json:"checkedAt"`
	Time      *Branch   `json:"time,omitempty"`
	Above     *Branch   `json:"above,omitempty"`
	Below     *Branch   `json:"below,omitempty"`
}

// Branches returns the present branches in time, above, below order.
func (r *Report) Branches() []*Branch {
	if r == nil {
		return nil
	}
	var out []*Branch
	for _, b := range []*Branch{r.Time, r.Above, r.Below} {
		if b != nil {
			out = append(out, b)
		}
	}
	return out
}

// Status combines the branches with OR semantics. Any met branch unlocks.
// Otherwise an unavailable branch makes the whole report unavailable, since a
// later retry could still unlock it.
func (r *Report) Status() Status {
	branches := r.Branches()
	if len(branches) == 0 {
		return StatusUnavailable
	}
	unavailable := false
	for _, b := range branches {
		switch b.Status {
		case StatusMet:
			return StatusMet
		case StatusUnavailable:
			unavailable = true
		}
	}
	if unavailable {
		return StatusUnavailable
	}
	return StatusNotMet
}

// Degraded reports whether any branch was decided below quorum.
func (r *Report) Degraded() bool {
	for _, b := range r.Branches() {
		if b.Degraded {
			return true
		}
	}
	return false
}
