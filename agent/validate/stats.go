package validate

import "sync/atomic"

// Stats accumulates answer validation outcomes. One Stats is shared by every
// pipeline run that should report together; all methods are safe for
// concurrent use.
type Stats struct {
	total             atomic.Int64
	valid             atomic.Int64
	invalid           atomic.Int64
	totalEvidence     atomic.Int64
	totalAnswerLength atomic.Int64
}

func NewStats() *Stats {
	return &Stats{}
}

func (s *Stats) record(valid bool, evidenceCount, answerLength int) {
	s.total.Add(1)
	if valid {
		s.valid.Add(1)
	} else {
		s.invalid.Add(1)
	}
	s.totalEvidence.Add(int64(evidenceCount))
	s.totalAnswerLength.Add(int64(answerLength))
}

func (s *Stats) Total() int64   { return s.total.Load() }
func (s *Stats) Valid() int64   { return s.valid.Load() }
func (s *Stats) Invalid() int64 { return s.invalid.Load() }

type Summary struct {
	Total            int64   `json:"total"`
	Valid            int64   `json:"valid"`
	Invalid          int64   `json:"invalid"`
	SuccessRate      float64 `json:"success_rate"`
	AvgEvidenceCount float64 `json:"avg_evidence_count"`
	AvgAnswerLength  float64 `json:"avg_answer_length"`
}

// Summary reports totals, success rate as a percentage and per-call averages.
func (s *Stats) Summary() Summary {
	total := s.total.Load()
	if total == 0 {
		return Summary{}
	}
	valid := s.valid.Load()
	return Summary{
		Total:            total,
		Valid:            valid,
		Invalid:          s.invalid.Load(),
		SuccessRate:      float64(valid) / float64(total) * 100,
		AvgEvidenceCount: float64(s.totalEvidence.Load()) / float64(total),
		AvgAnswerLength:  float64(s.totalAnswerLength.Load()) / float64(total),
	}
}
