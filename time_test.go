package vault

import (
	"encoding/json"
	"testing"
	"time"
)

func TestUnixTimeUnmarshal(t *testing.T) {
	cases := map[string]struct {
		raw      string
		wantErr  bool
		wantTime UnixTime
	}{
		"number timestamp": {
			raw:      "1234567",
			wantTime: 1234567,
		},
		"zero timestamp": {
			raw:      "0",
			wantTime: 0,
		},
		"negative timestamp": {
			raw:      "-1234567",
			wantTime: -1234567,
		},
		"string time format": {
			raw:      `"2019-04-04T11:35:10Z"`,
			wantTime: 1554377710,
		},
		"invalid string": {
			raw:     `"not a time"`,
			wantErr: true,
		},
		"float number": {
			raw:     "3.14",
			wantErr: true,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var got UnixTime
			err := json.Unmarshal([]byte(tc.raw), &got)
			if tc.wantErr {
				if err == nil {
					t.Fatal("want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("cannot unmarshal: %s", err)
			}
			if got != tc.wantTime {
				t.Fatalf("want %d, got %d", tc.wantTime, got)
			}
		})
	}
}

func TestUnixTimeAdd(t *testing.T) {
	now := UnixTime(1000)
	if got := now.Add(time.Minute); got != 1060 {
		t.Fatalf("unexpected time: %d", got)
	}
	if got := now.Add(-time.Minute); got != 940 {
		t.Fatalf("unexpected time: %d", got)
	}
	// Truncated to second precision.
	if got := now.Add(1500 * time.Millisecond); got != 1001 {
		t.Fatalf("unexpected time: %d", got)
	}
}

func TestAsUnixTime(t *testing.T) {
	when := time.Date(2019, time.April, 4, 11, 35, 10, 0, time.UTC)
	if got := AsUnixTime(when); got != 1554377710 {
		t.Fatalf("unexpected time: %d", got)
	}
	if !AsUnixTime(when).Time().Equal(when) {
		t.Fatal("conversion must round trip")
	}
}

func TestUnixDuration(t *testing.T) {
	d := AsUnixDuration(90 * time.Second)
	if d != 90 {
		t.Fatalf("unexpected duration: %d", d)
	}
	if d.Duration() != 90*time.Second {
		t.Fatalf("unexpected duration: %s", d.Duration())
	}

	var got UnixDuration
	if err := json.Unmarshal([]byte(`"2m"`), &got); err != nil {
		t.Fatalf("cannot unmarshal: %s", err)
	}
	if got != 120 {
		t.Fatalf("unexpected duration: %d", got)
	}
	if err := json.Unmarshal([]byte("15"), &got); err != nil {
		t.Fatalf("cannot unmarshal: %s", err)
	}
	if got != 15 {
		t.Fatalf("unexpected duration: %d", got)
	}
}
