package parser

import (
	"testing"
	"time"
)

func TestNormalizeDate(t *testing.T) {
	now := time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		value string
		want  time.Time
	}{
		{
			name:  "ISO date",
			value: "2024-03-15",
			want:  time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "day first with two digit year",
			value: "15/03/24",
			want:  time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "day first with four digit year",
			value: "15/03/2023",
			want:  time.Date(2023, time.March, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "dash separated",
			value: "05-11-24",
			want:  time.Date(2024, time.November, 5, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "no year assumes current one",
			value: "15/03",
			want:  time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeDate(tt.value, now)
			if !got.Equal(tt.want) {
				t.Errorf("NormalizeDate(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestNormalizeDateUnparseableDefaultsToNow(t *testing.T) {
	now := time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)
	got := NormalizeDate("not a date", now)
	if !got.Equal(now) {
		t.Errorf("NormalizeDate(unparseable) = %v, want now (%v)", got, now)
	}
}

func TestNormalizeDateRejectsImpossibleDayMonth(t *testing.T) {
	now := time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)
	// 45/33 matches the day-first shape but is not a date.
	got := NormalizeDate("45/33/24", now)
	if !got.Equal(now) {
		t.Errorf("NormalizeDate(45/33/24) = %v, want now", got)
	}
}
