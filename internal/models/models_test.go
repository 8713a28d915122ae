package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShift_Valid(t *testing.T) {
	cases := []struct {
		shift Shift
		want  bool
	}{
		{Shift{Start: 9, End: 17}, true},
		{Shift{Start: 0, End: 23}, true},
		{Shift{Start: 9, End: 9}, false},
		{Shift{Start: 17, End: 9}, false},
		{Shift{Start: -1, End: 5}, false},
		{Shift{Start: 5, End: 24}, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.shift.Valid(), "shift %+v", tc.shift)
	}
}

func TestShift_Covers(t *testing.T) {
	s := Shift{Start: 9, End: 17}
	day := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, s.Covers(day.Add(9*time.Hour)))
	assert.True(t, s.Covers(day.Add(16*time.Hour+59*time.Minute)))
	assert.False(t, s.Covers(day.Add(17*time.Hour)))
	assert.False(t, s.Covers(day.Add(8*time.Hour+59*time.Minute)))
}

func TestParseAppointmentStatus(t *testing.T) {
	st, ok := ParseAppointmentStatus("completed")
	assert.True(t, ok)
	assert.Equal(t, StatusCompleted, st)

	_, ok = ParseAppointmentStatus("rescheduled")
	assert.False(t, ok)
}
