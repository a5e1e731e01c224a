package ics

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// calendar joins lines with CRLF and wraps them in a VCALENDAR.
func calendar(lines ...string) []byte {
	all := append([]string{"BEGIN:VCALENDAR", "VERSION:2.0", "PRODID:-//icsweek//test//EN"}, lines...)
	all = append(all, "END:VCALENDAR", "")
	return []byte(strings.Join(all, "\r\n"))
}

func vevent(props ...string) []string {
	out := append([]string{"BEGIN:VEVENT"}, props...)
	return append(out, "END:VEVENT")
}

func TestNormalizeBasic(t *testing.T) {
	body := calendar(append(
		vevent("UID:b", "SUMMARY:Later", "DTSTART:20250115T140000Z", "DTEND:20250115T150000Z", "LOCATION:Room 2"),
		vevent("UID:a", "SUMMARY:Earlier", "DTSTART:20250115T100000Z", "DTEND:20250115T110000Z")...,
	)...)

	feed, err := Normalize("test.ics", body, time.UTC)
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	if len(feed.Events) != 2 {
		t.Fatalf("got %d events, want 2", len(feed.Events))
	}
	if feed.Events[0].UID != "a" || feed.Events[1].UID != "b" {
		t.Errorf("events not sorted by start: %s, %s", feed.Events[0].UID, feed.Events[1].UID)
	}
	want := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	if !feed.Events[0].Start.Equal(want) {
		t.Errorf("start = %v, want %v", feed.Events[0].Start, want)
	}
	if feed.Events[1].Location != "Room 2" {
		t.Errorf("location = %q", feed.Events[1].Location)
	}
	if len(feed.Dropped()) != 0 || feed.Repaired() != 0 {
		t.Errorf("unexpected dropped/repaired entries: %+v", feed.Entries)
	}
}

func TestNormalizeRepairsNonPositiveDuration(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
	}{
		{name: "equal", start: "20250115T100000Z", end: "20250115T100000Z"},
		{name: "reversed", start: "20250115T100000Z", end: "20250115T090000Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := calendar(vevent("UID:x", "SUMMARY:Broken", "DTSTART:"+tt.start, "DTEND:"+tt.end)...)
			feed, err := Normalize("", body, time.UTC)
			if err != nil {
				t.Fatalf("Normalize() error: %v", err)
			}
			ev := feed.Events[0]
			if got := ev.End.Sub(ev.Start); got != time.Hour {
				t.Errorf("duration = %v, want 1h", got)
			}
			if feed.Entries[0].Status != EntryRepaired {
				t.Errorf("status = %v, want repaired", feed.Entries[0].Status)
			}
			if feed.Repaired() != 1 {
				t.Errorf("Repaired() = %d, want 1", feed.Repaired())
			}
		})
	}
}

func TestNormalizeDropsIncompleteEntries(t *testing.T) {
	body := calendar(append(append(
		vevent("UID:nostart", "SUMMARY:No start", "DTEND:20250115T110000Z"),
		vevent("UID:badlen", "SUMMARY:Bad length", "DTSTART:20250115T100000Z", "DURATION:soon")...),
		vevent("UID:ok", "SUMMARY:Fine", "DTSTART:20250115T100000Z", "DTEND:20250115T110000Z")...,
	)...)

	feed, err := Normalize("", body, time.UTC)
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	if len(feed.Events) != 1 || feed.Events[0].UID != "ok" {
		t.Fatalf("events = %+v, want only ok", feed.Events)
	}
	dropped := feed.Dropped()
	if len(dropped) != 2 {
		t.Fatalf("Dropped() = %d entries, want 2", len(dropped))
	}
	if dropped[0].Reason != "missing DTSTART" || dropped[1].Reason != `invalid DURATION "soon"` {
		t.Errorf("reasons = %q, %q", dropped[0].Reason, dropped[1].Reason)
	}
	for _, d := range dropped {
		if d.Event != nil {
			t.Errorf("dropped entry %s carries an event", d.UID)
		}
	}
}

func TestNormalizeEndWithoutDTEND(t *testing.T) {
	tests := []struct {
		name   string
		props  []string
		start  time.Time
		end    time.Time
		status EntryStatus
	}{
		{
			name:   "duration",
			props:  []string{"DTSTART:20250115T090000Z", "DURATION:PT30M"},
			start:  time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC),
			end:    time.Date(2025, 1, 15, 9, 30, 0, 0, time.UTC),
			status: EntryOK,
		},
		{
			name:   "day and time duration",
			props:  []string{"DTSTART:20250115T090000Z", "DURATION:P1DT2H"},
			start:  time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC),
			end:    time.Date(2025, 1, 16, 11, 0, 0, 0, time.UTC),
			status: EntryOK,
		},
		{
			name:   "all-day week",
			props:  []string{"DTSTART;VALUE=DATE:20250120", "DURATION:P1W"},
			start:  time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC),
			end:    time.Date(2025, 1, 27, 0, 0, 0, 0, time.UTC),
			status: EntryOK,
		},
		{
			name:   "all-day without end",
			props:  []string{"DTSTART;VALUE=DATE:20250120"},
			start:  time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC),
			end:    time.Date(2025, 1, 21, 0, 0, 0, 0, time.UTC),
			status: EntryOK,
		},
		{
			name:   "timed without end",
			props:  []string{"DTSTART:20250115T100000Z"},
			start:  time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC),
			end:    time.Date(2025, 1, 15, 11, 0, 0, 0, time.UTC),
			status: EntryRepaired,
		},
		{
			name:   "zero duration",
			props:  []string{"DTSTART:20250115T100000Z", "DURATION:PT0S"},
			start:  time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC),
			end:    time.Date(2025, 1, 15, 11, 0, 0, 0, time.UTC),
			status: EntryRepaired,
		},
		{
			name:   "DTEND wins over DURATION",
			props:  []string{"DTSTART:20250115T100000Z", "DTEND:20250115T120000Z", "DURATION:PT15M"},
			start:  time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC),
			end:    time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC),
			status: EntryOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			props := append([]string{"UID:d", "SUMMARY:Standup"}, tt.props...)
			feed, err := Normalize("", calendar(vevent(props...)...), time.UTC)
			if err != nil {
				t.Fatalf("Normalize() error: %v", err)
			}
			ev := feed.Events[0]
			if !ev.Start.Equal(tt.start) || !ev.End.Equal(tt.end) {
				t.Errorf("interval = %v - %v, want %v - %v", ev.Start, ev.End, tt.start, tt.end)
			}
			if got := feed.Entries[0].Status; got != tt.status {
				t.Errorf("status = %v, want %v", got, tt.status)
			}
		})
	}
}

func TestParseICSDuration(t *testing.T) {
	base := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		in   string
		want time.Time
		err  bool
	}{
		{in: "PT1H30M", want: base.Add(90 * time.Minute)},
		{in: "+PT45S", want: base.Add(45 * time.Second)},
		{in: "-PT15M", want: base.Add(-15 * time.Minute)},
		{in: "P2W", want: base.AddDate(0, 0, 14)},
		{in: "p1dt1h", want: base.AddDate(0, 0, 1).Add(time.Hour)},
		{in: "", err: true},
		{in: "P", err: true},
		{in: "PT", err: true},
		{in: "P1H", err: true},
		{in: "PT1D", err: true},
		{in: "PT5", err: true},
		{in: "1H", err: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := parseICSDuration(tt.in)
			if tt.err {
				if !errors.Is(err, errBadDuration) {
					t.Fatalf("parseICSDuration(%q) error = %v, want errBadDuration", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseICSDuration(%q) error: %v", tt.in, err)
			}
			if got := d.addTo(base); !got.Equal(tt.want) {
				t.Errorf("addTo = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDurationKeepsWallClockAcrossDST(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	d, err := parseICSDuration("P1D")
	if err != nil {
		t.Fatal(err)
	}
	start := time.Date(2025, 3, 29, 9, 0, 0, 0, berlin)
	if got := d.addTo(start); got.Hour() != 9 || got.Day() != 30 {
		t.Errorf("P1D from %v = %v, want 30 March 09:00", start, got)
	}
}

func TestNormalizeAllDay(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	body := calendar(vevent("UID:holiday", "SUMMARY:Holiday", "DTSTART;VALUE=DATE:20250120", "DTEND;VALUE=DATE:20250121")...)

	feed, err := Normalize("", body, loc)
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	ev := feed.Events[0]
	if !ev.AllDay {
		t.Error("AllDay = false, want true")
	}
	if !ev.Start.Equal(time.Date(2025, 1, 20, 0, 0, 0, 0, loc)) {
		t.Errorf("start = %v, want local midnight", ev.Start)
	}
	if ev.Duration() != 24*time.Hour {
		t.Errorf("duration = %v, want 24h", ev.Duration())
	}
}

func TestNormalizeConvertsToDisplayZone(t *testing.T) {
	loc := time.FixedZone("UTC+1", 60*60)
	body := calendar(vevent("UID:z", "SUMMARY:Zone", "DTSTART:20250115T090000Z", "DTEND:20250115T100000Z")...)

	feed, err := Normalize("", body, loc)
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	if h := feed.Events[0].Start.Hour(); h != 10 {
		t.Errorf("start hour in display zone = %d, want 10", h)
	}
	if feed.Events[0].Start.Location() != loc {
		t.Errorf("start location = %v, want %v", feed.Events[0].Start.Location(), loc)
	}
}

func TestNormalizeSyntheticUID(t *testing.T) {
	body := calendar(vevent("SUMMARY:Anonymous", "DTSTART:20250115T090000Z", "DTEND:20250115T100000Z")...)

	first, err := Normalize("feed.ics", body, time.UTC)
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	second, err := Normalize("feed.ics", body, time.UTC)
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	uid := first.Events[0].UID
	if uid == "" {
		t.Fatal("expected a generated UID")
	}
	if uid != second.Events[0].UID {
		t.Errorf("generated UID not stable: %s vs %s", uid, second.Events[0].UID)
	}
}

func TestNormalizeEmptySummaryKeepsPlaceholder(t *testing.T) {
	body := calendar(vevent("UID:u", "DTSTART:20250115T090000Z", "DTEND:20250115T100000Z")...)

	feed, err := Normalize("", body, time.UTC)
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	if got := feed.Events[0].Title(); got != "(untitled)" {
		t.Errorf("Title() = %q, want placeholder", got)
	}
}

func TestNormalizeErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    []byte
		wantErr error
	}{
		{name: "empty", body: nil, wantErr: ErrEmptyFeed},
		{name: "whitespace", body: []byte("  \r\n\t"), wantErr: ErrEmptyFeed},
		{name: "no events", body: calendar(), wantErr: ErrNoEvents},
		{
			name:    "all dropped",
			body:    calendar(vevent("UID:x", "SUMMARY:Nothing")...),
			wantErr: ErrNoEvents,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize("in.ics", tt.body, time.UTC)
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("error = %v, want *ParseError", err)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if perr.Source != "in.ics" {
				t.Errorf("Source = %q", perr.Source)
			}
		})
	}
}

func TestNormalizeGarbageIsParseError(t *testing.T) {
	_, err := Normalize("junk", []byte("this is not a calendar\r\n"), time.UTC)
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
}

func TestEmptyFileMessage(t *testing.T) {
	err := &ParseError{Err: ErrEmptyFeed}
	if !strings.Contains(err.Error(), "empty file") {
		t.Errorf("Error() = %q, want it to mention the empty file", err.Error())
	}
}

func TestRedactURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://example.com/private/abc.ics?token=1", "https://example.com/...(redacted)"},
		{"https://example.com", "https://example.com"},
		{"/home/me/cal.ics", "/home/me/cal.ics"},
		{"-", "-"},
	}
	for _, tt := range tests {
		if got := redactURL(tt.in); got != tt.want {
			t.Errorf("redactURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
