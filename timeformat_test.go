package tempograph

import (
	"errors"
	"testing"
	"time"
)

func TestTimeFormatParse(t *testing.T) {
	// Expected values computed independently through the time package so the
	// test does not share arithmetic with the implementation.
	utc := func(year int, month time.Month, day, hour, min, sec, millis int) int64 {
		return time.Date(year, month, day, hour, min, sec, millis*int(time.Millisecond), time.UTC).UnixMilli()
	}

	tests := []struct {
		Name string
		Text string
		Want int64
	}{
		{
			Name: "year-only",
			Text: "2021",
			Want: utc(2021, time.January, 1, 0, 0, 0, 0),
		},
		{
			Name: "year-month",
			Text: "2021-03",
			Want: utc(2021, time.March, 1, 0, 0, 0, 0),
		},
		{
			Name: "date",
			Text: "2021-03-01",
			Want: utc(2021, time.March, 1, 0, 0, 0, 0),
		},
		{
			Name: "date-hour",
			Text: "2021-03-01 10",
			Want: utc(2021, time.March, 1, 10, 0, 0, 0),
		},
		{
			Name: "date-minute",
			Text: "2021-03-01 10:15",
			Want: utc(2021, time.March, 1, 10, 15, 0, 0),
		},
		{
			Name: "date-second",
			Text: "2021-03-01 10:15:30",
			Want: utc(2021, time.March, 1, 10, 15, 30, 0),
		},
		{
			Name: "full-precision",
			Text: "2021-03-01 10:15:30.500",
			Want: utc(2021, time.March, 1, 10, 15, 30, 500),
		},
	}
	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			got, err := defaultTimeFormat.Parse(tt.Text)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.Text, err)
			}
			if got != tt.Want {
				t.Errorf("Parse(%q) = %v, want %v", tt.Text, got, tt.Want)
			}
		})
	}
}

func TestTimeFormatParseErrors(t *testing.T) {
	tests := []struct {
		Name string
		Text string
	}{
		{Name: "empty", Text: ""},
		{Name: "non-digit-year", Text: "20xx"},
		{Name: "wrong-separator", Text: "2021/03/01"},
		{Name: "truncated-month", Text: "2021-3"},
		{Name: "trailing-content", Text: "2021-03-01T"},
		{Name: "partial-granularity", Text: "2021-03-01 10:1"},
	}
	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			_, err := defaultTimeFormat.Parse(tt.Text)
			if err == nil {
				t.Fatalf("Parse(%q) succeeded, want *TimeFormatError", tt.Text)
			}
			var tfe *TimeFormatError
			if !errors.As(err, &tfe) {
				t.Fatalf("Parse(%q) = %v, want *TimeFormatError", tt.Text, err)
			}
			if tfe.Text != tt.Text || tfe.Pattern != DefaultTimePattern {
				t.Errorf("error carries (%q, %q), want (%q, %q)", tfe.Text, tfe.Pattern, tt.Text, DefaultTimePattern)
			}
		})
	}
}

func TestParseTimeFormatRejectsMalformedPatterns(t *testing.T) {
	tests := []struct {
		Name    string
		Pattern string
	}{
		{Name: "unclosed-bracket", Pattern: "yyyy[-MM"},
		{Name: "unopened-bracket", Pattern: "yyyy]-MM"},
		{Name: "content-after-group", Pattern: "yyyy[-MM]-dd"},
	}
	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			if _, err := ParseTimeFormat(tt.Pattern); err == nil {
				t.Errorf("ParseTimeFormat(%q) succeeded, want error", tt.Pattern)
			}
		})
	}
}

func TestCustomTimeFormat(t *testing.T) {
	f, err := ParseTimeFormat("dd/MM/yyyy")
	if err != nil {
		t.Fatal(err)
	}
	got, err := f.Parse("01/03/2021")
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2021, time.March, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	if got != want {
		t.Errorf("Parse = %v, want %v", got, want)
	}
}

func TestFormatTimeRoundTrips(t *testing.T) {
	const text = "2021-03-01 10:15:30.500"
	epoch, err := defaultTimeFormat.Parse(text)
	if err != nil {
		t.Fatal(err)
	}
	if got := FormatTime(epoch); got != text {
		t.Errorf("FormatTime(%v) = %q, want %q", epoch, got, text)
	}
}
