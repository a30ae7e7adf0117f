package services

import (
	"testing"
	"time"

	"github.com/clay-spfmlp/agile-hub-sub000/internal/models"
)

func votesFor(values ...string) []*models.Vote {
	votes := make([]*models.Vote, len(values))
	for i, v := range values {
		votes[i] = &models.Vote{
			ParticipantID: "p" + string(rune('1'+i)),
			StoryID:       "story-1",
			Value:         v,
			SubmittedAt:   time.Now(),
		}
	}
	return votes
}

func TestStatsCompute(t *testing.T) {
	svc := NewStatsService()

	tests := []struct {
		name             string
		values           []string
		participantCount int
		wantNumeric      int
		wantMean         float64
		wantMedian       float64
	}{
		{
			name:             "mixed numeric and tokens",
			values:           []string{"3", "5", "5", "?"},
			participantCount: 4,
			wantNumeric:      3,
			wantMean:         4.33,
			wantMedian:       5,
		},
		{
			name:             "even count averages the middles",
			values:           []string{"5", "8"},
			participantCount: 2,
			wantNumeric:      2,
			wantMean:         6.5,
			wantMedian:       6.5,
		},
		{
			name:             "all non-numeric",
			values:           []string{"XL", "?", "M"},
			participantCount: 3,
			wantNumeric:      0,
			wantMean:         0,
			wantMedian:       0,
		},
		{
			name:             "fractional cards",
			values:           []string{"0.5", "1", "2", "3"},
			participantCount: 5,
			wantNumeric:      4,
			wantMean:         1.63,
			wantMedian:       1.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := svc.Compute(votesFor(tt.values...), tt.participantCount)

			if stats.ParticipantCount != tt.participantCount {
				t.Errorf("participant count = %d, want %d", stats.ParticipantCount, tt.participantCount)
			}
			if stats.VoteCount != len(tt.values) {
				t.Errorf("vote count = %d, want %d", stats.VoteCount, len(tt.values))
			}
			if stats.NumericCount != tt.wantNumeric {
				t.Errorf("numeric count = %d, want %d", stats.NumericCount, tt.wantNumeric)
			}
			if stats.Mean != tt.wantMean {
				t.Errorf("mean = %v, want %v", stats.Mean, tt.wantMean)
			}
			if stats.Median != tt.wantMedian {
				t.Errorf("median = %v, want %v", stats.Median, tt.wantMedian)
			}
		})
	}
}

func TestStatsComputeEmptyBallot(t *testing.T) {
	stats := NewStatsService().Compute(nil, 3)
	if stats.VoteCount != 0 || stats.NumericCount != 0 || stats.Mean != 0 || stats.Median != 0 {
		t.Fatalf("empty ballot stats = %+v, want zeroes", stats)
	}
	if stats.ParticipantCount != 3 {
		t.Fatalf("participant count = %d, want 3", stats.ParticipantCount)
	}
}
