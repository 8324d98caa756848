package timetrack

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatMinutes(t *testing.T) {
	tests := []struct {
		minutes int
		want    string
	}{
		{0, "0 min"},
		{59, "59 min"},
		{60, "1h"},
		{90, "1h 30min"},
		{120, "2h"},
		{1439, "23h 59min"},
		{1440, "1d"},
		{1500, "1d 1h"},
		{2880, "2d"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatMinutes(tt.minutes), "minutes=%d", tt.minutes)
	}
}

func TestWaitingAndManagementMinutes(t *testing.T) {
	requested := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	started := requested.Add(10 * time.Minute)
	completed := requested.Add(90 * time.Minute)

	waiting := WaitingMinutes(requested, &started)
	if assert.NotNil(t, waiting) {
		assert.Equal(t, 10, *waiting)
	}

	management := ManagementMinutes(requested, &completed)
	if assert.NotNil(t, management) {
		assert.Equal(t, 90, *management)
		assert.Equal(t, "1h 30min", FormatMinutesPtr(management))
	}
}

func TestMinutesBetweenMissingInstant(t *testing.T) {
	now := time.Now()
	assert.Nil(t, MinutesBetween(&now, nil))
	assert.Nil(t, MinutesBetween(nil, &now))
	assert.Nil(t, WaitingMinutes(now, nil))
}

func TestElapsedMinutes(t *testing.T) {
	requested := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	now := requested.Add(125 * time.Minute)
	assert.Equal(t, 125, ElapsedMinutes(requested, now))
	assert.Equal(t, "2h 5min", FormatMinutes(ElapsedMinutes(requested, now)))
}

func TestFormatMinutesPtrNil(t *testing.T) {
	assert.Equal(t, "", FormatMinutesPtr(nil))
}
