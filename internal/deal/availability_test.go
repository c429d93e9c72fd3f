package deal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/astren/internal/model"
)

func TestFlagGate(t *testing.T) {
	g := FlagGate{}
	assert.True(t, g.Redeemable(model.Deal{IsActive: true}, time.Time{}))
	assert.False(t, g.Redeemable(model.Deal{IsActive: false}, time.Now()))
}

func TestScheduleGate(t *testing.T) {
	// 2024-07-19, пятница
	at := func(hour int) time.Time {
		return time.Date(2024, 7, 19, hour, 30, 0, 0, time.UTC)
	}

	tests := []struct {
		name     string
		schedule model.Schedule
		now      time.Time
		want     bool
	}{
		{
			name:     "no active days",
			schedule: model.Schedule{},
			now:      at(12),
			want:     false,
		},
		{
			name:     "other weekday",
			schedule: model.Schedule{ActiveDays: []time.Weekday{time.Saturday, time.Sunday}},
			now:      at(12),
			want:     false,
		},
		{
			name:     "matching day without range",
			schedule: model.Schedule{ActiveDays: []time.Weekday{time.Friday}},
			now:      at(3),
			want:     true,
		},
		{
			name: "inside range",
			schedule: model.Schedule{
				ActiveDays: []time.Weekday{time.Friday},
				TimeRange:  &model.HourRange{Start: 13, End: 17},
			},
			now:  at(13),
			want: true,
		},
		{
			name: "end hour is excluded",
			schedule: model.Schedule{
				ActiveDays: []time.Weekday{time.Friday},
				TimeRange:  &model.HourRange{Start: 13, End: 17},
			},
			now:  at(17),
			want: false,
		},
		{
			name: "before range",
			schedule: model.Schedule{
				ActiveDays: []time.Weekday{time.Friday},
				TimeRange:  &model.HourRange{Start: 13, End: 17},
			},
			now:  at(12),
			want: false,
		},
	}

	g := ScheduleGate{Location: time.UTC}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := model.Deal{IsActive: true, Schedule: tt.schedule}
			assert.Equal(t, tt.want, g.Redeemable(d, tt.now))
		})
	}
}

func TestScheduleGate_UsesLocation(t *testing.T) {
	loc := time.FixedZone("AST", 3*60*60)
	g := ScheduleGate{Location: loc}

	d := model.Deal{Schedule: model.Schedule{
		ActiveDays: []time.Weekday{time.Saturday},
		TimeRange:  &model.HourRange{Start: 0, End: 2},
	}}

	// 22:30 UTC пятницы соответствует 01:30 субботы по местному времени
	now := time.Date(2024, 7, 19, 22, 30, 0, 0, time.UTC)
	assert.True(t, g.Redeemable(d, now))
}

func TestNewGate(t *testing.T) {
	g, err := NewGate("", nil)
	require.NoError(t, err)
	assert.IsType(t, FlagGate{}, g)

	g, err = NewGate(PolicySchedule, time.UTC)
	require.NoError(t, err)
	assert.IsType(t, ScheduleGate{}, g)

	_, err = NewGate("both", nil)
	assert.Error(t, err)
}
