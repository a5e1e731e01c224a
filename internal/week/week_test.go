package week

import (
	"testing"
	"time"

	"icsweek/internal/model"
)

func date(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

func event(uid string, start, end time.Time) *model.Event {
	return &model.Event{UID: uid, Summary: uid, Start: start, End: end}
}

func uids(events []*model.Event) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.UID
	}
	return out
}

func TestMondayOf(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
	}{
		{name: "monday", in: date(2025, 1, 13, 9, 0)},
		{name: "wednesday", in: date(2025, 1, 15, 14, 30)},
		{name: "sunday", in: date(2025, 1, 19, 23, 59)},
	}
	want := date(2025, 1, 13, 0, 0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MondayOf(tt.in, time.UTC); !got.Equal(want) {
				t.Errorf("MondayOf(%v) = %v, want %v", tt.in, got, want)
			}
		})
	}
}

func TestOverlaps(t *testing.T) {
	from, to := date(2025, 1, 13, 0, 0), date(2025, 1, 19, 23, 59)
	tests := []struct {
		name       string
		start, end time.Time
		want       bool
	}{
		{name: "inside", start: date(2025, 1, 14, 9, 0), end: date(2025, 1, 14, 10, 0), want: true},
		{name: "starts inside", start: date(2025, 1, 19, 22, 0), end: date(2025, 1, 20, 2, 0), want: true},
		{name: "ends inside", start: date(2025, 1, 12, 22, 0), end: date(2025, 1, 13, 2, 0), want: true},
		{name: "spans", start: date(2025, 1, 1, 0, 0), end: date(2025, 2, 1, 0, 0), want: true},
		{name: "ends on boundary", start: date(2025, 1, 12, 10, 0), end: from, want: true},
		{name: "before", start: date(2025, 1, 10, 9, 0), end: date(2025, 1, 10, 10, 0), want: false},
		{name: "after", start: date(2025, 1, 21, 9, 0), end: date(2025, 1, 21, 10, 0), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.start, tt.end, from, to); got != tt.want {
				t.Errorf("Overlaps() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPartitionAlignment(t *testing.T) {
	window := model.DateWindow{Start: date(2025, 1, 15, 0, 0), End: date(2025, 2, 5, 0, 0)}

	for _, weekends := range []bool{true, false} {
		buckets := Partition(nil, window, weekends, time.UTC)
		if len(buckets) != 4 {
			t.Fatalf("weekends=%v: got %d buckets, want 4", weekends, len(buckets))
		}
		for _, b := range buckets {
			if b.WeekStart.Weekday() != time.Monday || b.WeekStart.Hour() != 0 {
				t.Errorf("WeekStart %v is not Monday midnight", b.WeekStart)
			}
			wantLast := time.Sunday
			wantDays := 7
			if !weekends {
				wantLast = time.Friday
				wantDays = 5
			}
			if b.WeekEnd.Weekday() != wantLast {
				t.Errorf("weekends=%v: WeekEnd %v is a %v, want %v", weekends, b.WeekEnd, b.WeekEnd.Weekday(), wantLast)
			}
			if !b.WeekEnd.Equal(model.EndOfDay(b.WeekEnd)) {
				t.Errorf("WeekEnd %v is not the end of its day", b.WeekEnd)
			}
			if len(b.Days) != wantDays || !b.Days[0].Equal(b.WeekStart) {
				t.Errorf("Days = %v", b.Days)
			}
		}
	}
}

func TestPartitionKeepsEmptyMiddleWeek(t *testing.T) {
	events := []*model.Event{
		event("first", date(2025, 1, 15, 10, 0), date(2025, 1, 15, 11, 0)),
		event("third", date(2025, 1, 29, 10, 0), date(2025, 1, 29, 11, 0)),
	}
	window := model.DateWindow{Start: date(2025, 1, 13, 0, 0), End: date(2025, 2, 2, 0, 0)}

	buckets := Partition(events, window, true, time.UTC)
	if len(buckets) != 3 {
		t.Fatalf("got %d buckets, want 3", len(buckets))
	}
	if got := uids(buckets[0].Events); len(got) != 1 || got[0] != "first" {
		t.Errorf("week 1 = %v", got)
	}
	if !buckets[1].Empty() {
		t.Errorf("week 2 = %v, want empty", uids(buckets[1].Events))
	}
	if got := uids(buckets[2].Events); len(got) != 1 || got[0] != "third" {
		t.Errorf("week 3 = %v", got)
	}
}

func TestPartitionFiltersByWindowFirst(t *testing.T) {
	events := []*model.Event{
		event("monday-outside", date(2025, 1, 13, 10, 0), date(2025, 1, 13, 11, 0)),
		event("thursday-inside", date(2025, 1, 16, 10, 0), date(2025, 1, 16, 11, 0)),
		event("spans-into-window", date(2025, 1, 12, 9, 0), date(2025, 1, 15, 9, 0)),
		event("next-week", date(2025, 1, 20, 10, 0), date(2025, 1, 20, 11, 0)),
	}
	// Wednesday to Friday of one week.
	window := model.DateWindow{Start: date(2025, 1, 15, 0, 0), End: date(2025, 1, 17, 0, 0)}

	buckets := Partition(events, window, true, time.UTC)
	if len(buckets) != 1 {
		t.Fatalf("got %d buckets, want 1", len(buckets))
	}
	if !buckets[0].WeekStart.Equal(date(2025, 1, 13, 0, 0)) {
		t.Errorf("WeekStart = %v", buckets[0].WeekStart)
	}
	got := uids(buckets[0].Events)
	want := []string{"thursday-inside", "spans-into-window"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestPartitionMultiWeekEvent(t *testing.T) {
	trip := event("trip", date(2025, 1, 17, 9, 0), date(2025, 1, 22, 18, 0))
	window := model.DateWindow{Start: date(2025, 1, 13, 0, 0), End: date(2025, 1, 26, 0, 0)}

	buckets := Partition([]*model.Event{trip}, window, true, time.UTC)
	if len(buckets) != 2 {
		t.Fatalf("got %d buckets, want 2", len(buckets))
	}
	for i, b := range buckets {
		if len(b.Events) != 1 {
			t.Errorf("week %d events = %v, want the trip", i, uids(b.Events))
		}
	}
}

func TestPartitionWeekendOnlyEventWithoutWeekends(t *testing.T) {
	sat := event("saturday", date(2025, 1, 18, 10, 0), date(2025, 1, 18, 12, 0))
	window := model.DateWindow{Start: date(2025, 1, 13, 0, 0), End: date(2025, 1, 19, 0, 0)}

	if b := Partition([]*model.Event{sat}, window, false, time.UTC); !b[0].Empty() {
		t.Errorf("events = %v, want none", uids(b[0].Events))
	}
	if b := Partition([]*model.Event{sat}, window, true, time.UTC); b[0].Empty() {
		t.Error("saturday event missing with weekends included")
	}
}

func TestPartitionSingleSundayWindow(t *testing.T) {
	window := model.DateWindow{Start: date(2025, 1, 19, 0, 0), End: date(2025, 1, 19, 0, 0)}
	buckets := Partition(nil, window, true, time.UTC)
	if len(buckets) != 1 || !buckets[0].WeekStart.Equal(date(2025, 1, 13, 0, 0)) {
		t.Errorf("buckets = %+v", buckets)
	}
}

func TestPartitionReversedWindow(t *testing.T) {
	window := model.DateWindow{Start: date(2025, 2, 1, 0, 0), End: date(2025, 1, 1, 0, 0)}
	if buckets := Partition(nil, window, true, time.UTC); buckets != nil {
		t.Errorf("buckets = %+v, want nil", buckets)
	}
}
