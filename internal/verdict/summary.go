package verdict

import "strings"

// Observation is what one test run showed about a solution.
type Observation struct {
	TLE bool
	MLE bool
	RTE bool
	WA  bool
	PE  bool
}

func (o Observation) clean() bool {
	return !(o.TLE || o.MLE || o.RTE || o.WA || o.PE)
}

// Summary is the OR-aggregation of observations across all tests.
type Summary struct {
	TLE bool
	MLE bool
	RTE bool
	WA  bool
	PE  bool
}

func (s *Summary) Merge(o Observation) {
	s.TLE = s.TLE || o.TLE
	s.MLE = s.MLE || o.MLE
	s.RTE = s.RTE || o.RTE
	s.WA = s.WA || o.WA
	s.PE = s.PE || o.PE
}

// Clean reports whether no failure mode was ever observed.
func (s Summary) Clean() bool {
	return !(s.TLE || s.MLE || s.RTE || s.WA || s.PE)
}

func (s Summary) String() string {
	var seen []string
	if s.TLE {
		seen = append(seen, "Time Limit Exceeded")
	}
	if s.MLE {
		seen = append(seen, "Memory Limit Exceeded")
	}
	if s.RTE {
		seen = append(seen, "Runtime Error")
	}
	if s.WA {
		seen = append(seen, "Wrong Answer")
	}
	if s.PE {
		seen = append(seen, "Presentation Error")
	}
	if len(seen) == 0 {
		return "no failures"
	}
	return strings.Join(seen, ", ")
}
