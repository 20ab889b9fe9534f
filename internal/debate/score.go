package debate

import (
	"math"

	"github.com/lorenzotomasdiez/debate-coach/internal/debate/reply"
)

// Aggregator keeps the running mean of parsed scores.
type Aggregator struct {
	count int
	sum   float64
}

// Record adds score to the aggregate. A nil score is ignored.
func (a *Aggregator) Record(score *float64) {
	if score == nil {
		return
	}
	a.count++
	a.sum += *score
}

// Count returns how many scores have been recorded.
func (a *Aggregator) Count() int { return a.count }

// Average returns the mean rounded to one decimal, or 0 with no scores.
func (a *Aggregator) Average() float64 {
	if a.count == 0 {
		return 0
	}
	return roundTenth(a.sum / float64(a.count))
}

// ReplayAverage recomputes the running score from a transcript alone.
func ReplayAverage(turns []Turn) float64 {
	var agg Aggregator
	for _, turn := range turns {
		if turn.Role != RoleAssistant {
			continue
		}
		agg.Record(reply.Parse(turn.Text).Score)
	}
	return agg.Average()
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
