package ratelimit

import (
	"testing"
	"time"
)

func TestSample_Percentages(t *testing.T) {
	tests := []struct {
		name      string
		sample    Sample
		wantShort float64
		wantDaily float64
	}{
		{
			name:      "typical usage",
			sample:    Sample{UsedShort: 300, LimitShort: 600, UsedDaily: 3000, LimitDaily: 30000},
			wantShort: 50,
			wantDaily: 10,
		},
		{
			name:      "over the limit",
			sample:    Sample{UsedShort: 1200, LimitShort: 600, UsedDaily: 0, LimitDaily: 30000},
			wantShort: 200,
			wantDaily: 0,
		},
		{
			name:      "unknown limits",
			sample:    Sample{UsedShort: 10, UsedDaily: 10},
			wantShort: 0,
			wantDaily: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sample.ShortPercent(); got != tt.wantShort {
				t.Errorf("ShortPercent() = %v, want %v", got, tt.wantShort)
			}
			if got := tt.sample.DailyPercent(); got != tt.wantDaily {
				t.Errorf("DailyPercent() = %v, want %v", got, tt.wantDaily)
			}
		})
	}
}

func TestSample_IsStale(t *testing.T) {
	tests := []struct {
		name     string
		sample   Sample
		maxAge   time.Duration
		expected bool
	}{
		{
			name:     "fresh sample",
			sample:   Sample{ObservedAt: time.Now()},
			maxAge:   5 * time.Minute,
			expected: false,
		},
		{
			name:     "stale sample",
			sample:   Sample{ObservedAt: time.Now().Add(-10 * time.Minute)},
			maxAge:   5 * time.Minute,
			expected: true,
		},
		{
			name:     "never observed",
			sample:   Sample{},
			maxAge:   time.Hour,
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sample.IsStale(tt.maxAge); got != tt.expected {
				t.Errorf("IsStale() = %v, want %v", got, tt.expected)
			}
		})
	}
}
