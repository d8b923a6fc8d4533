package domain

import "time"

// ScoreMax is the top of the 0..10 progress scale. A node is completed when
// its score reaches ScoreMax.
const ScoreMax = 10

type Progress struct {
	UserID    string `validate:"required"`
	NodeID    string `validate:"required"`
	Score     int    `validate:"min=0,max=10"`
	UpdatedAt time.Time
}

func (p *Progress) Completed() bool {
	return p.Score >= ScoreMax
}

// ScoreFor converts a completion flag to a score.
func ScoreFor(completed bool) int {
	if completed {
		return ScoreMax
	}
	return 0
}

// ClampScore bounds s to 0..ScoreMax.
func ClampScore(s int) int {
	if s < 0 {
		return 0
	}
	if s > ScoreMax {
		return ScoreMax
	}
	return s
}

// ProgressMap maps node IDs to one user's scores.
type ProgressMap map[string]int

// Completed reports whether nodeID is at ScoreMax. Missing nodes are not completed.
func (m ProgressMap) Completed(nodeID string) bool {
	return m[nodeID] >= ScoreMax
}

// CompletionMap returns the boolean view of m.
func (m ProgressMap) CompletionMap() map[string]bool {
	out := make(map[string]bool, len(m))
	for id, score := range m {
		out[id] = score >= ScoreMax
	}
	return out
}

// Clone returns a copy of m.
func (m ProgressMap) Clone() ProgressMap {
	out := make(ProgressMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
