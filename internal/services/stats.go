package services

import (
	"math"
	"sort"
	"strconv"

	"github.com/clay-spfmlp/agile-hub-sub000/internal/models"
)

// StatsService computes reveal-time statistics from a disclosed ballot.
type StatsService struct{}

func NewStatsService() *StatsService {
	return &StatsService{}
}

// Compute derives the reveal statistics. Non-numeric values ("?", "XL") are
// excluded from the numeric aggregates. Mean is rounded to two decimals; the
// median of an even-sized ballot is the average of the two middle values.
func (s *StatsService) Compute(votes []*models.Vote, participantCount int) *models.RevealStats {
	stats := &models.RevealStats{
		ParticipantCount: participantCount,
		VoteCount:        len(votes),
	}

	var numeric []float64
	for _, v := range votes {
		if f, err := strconv.ParseFloat(v.Value, 64); err == nil {
			numeric = append(numeric, f)
		}
	}
	stats.NumericCount = len(numeric)
	if len(numeric) == 0 {
		return stats
	}

	sum := 0.0
	for _, f := range numeric {
		sum += f
	}
	stats.Mean = round2(sum / float64(len(numeric)))

	sort.Float64s(numeric)
	mid := len(numeric) / 2
	if len(numeric)%2 == 1 {
		stats.Median = numeric[mid]
	} else {
		stats.Median = round2((numeric[mid-1] + numeric[mid]) / 2)
	}
	return stats
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
