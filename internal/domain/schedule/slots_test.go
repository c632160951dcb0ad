package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// at builds a timestamp on a fixed Wednesday (2025-06-18).
func at(hour, minute, sec int) time.Time {
	return time.Date(2025, 6, 18, hour, minute, sec, 0, time.UTC)
}

func openAllWeek(close string) Week {
	var w Week
	for i := range w {
		w[i] = DayHours{Open: true, Close: close}
	}
	return w
}

func TestSlots(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		week     Week
		lead     int
		interval int
		want     []string
	}{
		{
			name:     "closed day yields no slots",
			now:      at(10, 0, 0),
			week:     Week{}, // all days closed
			lead:     30,
			interval: 30,
			want:     nil,
		},
		{
			name:     "first slot rounds up to the interval",
			now:      at(10, 5, 0),
			week:     openAllWeek("12:00"),
			lead:     30,
			interval: 30,
			want:     []string{"11:00", "11:30"},
		},
		{
			name:     "exact multiple is not rounded further",
			now:      at(10, 0, 0),
			week:     openAllWeek("11:35"),
			lead:     30,
			interval: 15,
			want:     []string{"10:30", "10:45", "11:00"},
		},
		{
			name:     "seconds push the first slot forward",
			now:      at(10, 0, 1),
			week:     openAllWeek("11:35"),
			lead:     30,
			interval: 15,
			want:     []string{"10:45", "11:00"},
		},
		{
			name:     "closing buffer leaves the last half hour empty",
			now:      at(22, 35, 0),
			week:     openAllWeek("23:00"),
			lead:     30,
			interval: 30,
			want:     nil,
		},
		{
			name:     "last slot lands exactly on close minus buffer",
			now:      at(21, 0, 0),
			week:     openAllWeek("23:00"),
			lead:     30,
			interval: 30,
			want:     []string{"21:30", "22:00", "22:30"},
		},
		{
			name:     "overnight close already passed rolls to the next day",
			now:      at(23, 10, 0),
			week:     openAllWeek("02:00"),
			lead:     30,
			interval: 60,
			want:     []string{"00:00", "01:00"},
		},
		{
			name:     "overnight close still ahead stays on today",
			now:      at(0, 40, 0),
			week:     openAllWeek("02:00"),
			lead:     20,
			interval: 30,
			want:     []string{"01:00", "01:30"},
		},
		{
			name:     "non-positive interval yields no slots",
			now:      at(10, 0, 0),
			week:     openAllWeek("23:00"),
			lead:     30,
			interval: 0,
			want:     nil,
		},
		{
			name:     "unparseable close time yields no slots",
			now:      at(10, 0, 0),
			week:     openAllWeek("midnight"),
			lead:     30,
			interval: 30,
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Slots(tt.now, tt.week, tt.lead, tt.interval)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSlots_FreshOnEveryCall(t *testing.T) {
	week := openAllWeek("23:00")

	early := Slots(at(20, 0, 0), week, 30, 30)
	late := Slots(at(22, 0, 0), week, 30, 30)

	assert.NotEqual(t, early, late)
	assert.Equal(t, "20:30", early[0])
	assert.Equal(t, "22:30", late[0])
}
