package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mlechner/polier/internal/domain"
)

func floatPtr(f float64) *float64                       { return &f }
func intPtr(i int) *int                                 { return &i }
func trendPtr(d domain.TrendDirection) *domain.TrendDirection { return &d }

func TestClassify(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		name string
		in   ClassifyInput
		want domain.InsightStatus
	}{
		{
			name: "completed wins over late forecast",
			in: ClassifyInput{
				ProgressPercent:   100,
				BurnRate:          floatPtr(8),
				Trend:             trendPtr(domain.TrendDown),
				DeadlineDeltaDays: intPtr(30),
			},
			want: domain.StatusCompleted,
		},
		{
			name: "overshoot beyond two weeks is critical",
			in: ClassifyInput{
				ProgressPercent:   40,
				BurnRate:          floatPtr(5),
				Trend:             trendPtr(domain.TrendStable),
				DeadlineDeltaDays: intPtr(15),
			},
			want: domain.StatusCritical,
		},
		{
			name: "stalled phase far behind plan is critical",
			in: ClassifyInput{
				ProgressPercent:    10,
				TimeElapsedPercent: 60,
			},
			want: domain.StatusCritical,
		},
		{
			name: "moderate overshoot is behind",
			in: ClassifyInput{
				ProgressPercent:   50,
				BurnRate:          floatPtr(5),
				Trend:             trendPtr(domain.TrendStable),
				DeadlineDeltaDays: intPtr(3),
			},
			want: domain.StatusBehind,
		},
		{
			name: "downward trend with large lag is behind",
			in: ClassifyInput{
				ProgressPercent:    30,
				TimeElapsedPercent: 55,
				BurnRate:           floatPtr(2),
				Trend:              trendPtr(domain.TrendDown),
			},
			want: domain.StatusBehind,
		},
		{
			name: "downward trend alone is at risk",
			in: ClassifyInput{
				ProgressPercent:    50,
				TimeElapsedPercent: 50,
				BurnRate:           floatPtr(4),
				Trend:              trendPtr(domain.TrendDown),
				DeadlineDeltaDays:  intPtr(-10),
			},
			want: domain.StatusAtRisk,
		},
		{
			name: "near miss inside buffer is at risk",
			in: ClassifyInput{
				ProgressPercent:   70,
				BurnRate:          floatPtr(6),
				Trend:             trendPtr(domain.TrendStable),
				DeadlineDeltaDays: intPtr(-2),
			},
			want: domain.StatusAtRisk,
		},
		{
			name: "comfortable buffer is on track",
			in: ClassifyInput{
				ProgressPercent:   70,
				BurnRate:          floatPtr(6),
				Trend:             trendPtr(domain.TrendUp),
				DeadlineDeltaDays: intPtr(-10),
			},
			want: domain.StatusOnTrack,
		},
		{
			name: "no history and no lag stays on track",
			in: ClassifyInput{
				ProgressPercent:    20,
				TimeElapsedPercent: 25,
			},
			want: domain.StatusOnTrack,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.in, th))
		})
	}
}

func TestClassify_ThresholdBoundaries(t *testing.T) {
	th := DefaultThresholds()

	// Exactly 14 days over is still behind, 15 tips into critical.
	base := ClassifyInput{ProgressPercent: 40, BurnRate: floatPtr(5), Trend: trendPtr(domain.TrendStable)}

	atLimit := base
	atLimit.DeadlineDeltaDays = intPtr(th.CriticalOvershootDays)
	assert.Equal(t, domain.StatusBehind, Classify(atLimit, th))

	over := base
	over.DeadlineDeltaDays = intPtr(th.CriticalOvershootDays + 1)
	assert.Equal(t, domain.StatusCritical, Classify(over, th))

	// Exactly three days early is still inside the near-miss band.
	nearMiss := base
	nearMiss.DeadlineDeltaDays = intPtr(-th.NearMissBandDays)
	assert.Equal(t, domain.StatusAtRisk, Classify(nearMiss, th))

	clear := base
	clear.DeadlineDeltaDays = intPtr(-th.NearMissBandDays - 1)
	assert.Equal(t, domain.StatusOnTrack, Classify(clear, th))
}
