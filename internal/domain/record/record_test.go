package record

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/ghcount/internal/domain"
)

func TestNew(t *testing.T) {
	r, err := New("💩", 42, "2024-01-02T03:04:05.678Z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Version() != "v1" {
		t.Errorf("Version() = %q", r.Version())
	}
	if r.Fragment() != "💩" {
		t.Errorf("Fragment() = %q", r.Fragment())
	}
	if r.Val() != 42 {
		t.Errorf("Val() = %d", r.Val())
	}
	if r.Timestamp() != "2024-01-02T03:04:05.678Z" {
		t.Errorf("Timestamp() = %q", r.Timestamp())
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		fragment  string
		val       int64
		timestamp string
	}{
		{"empty fragment", "", 1, "2024-01-02T03:04:05.678Z"},
		{"negative val", "x", -1, "2024-01-02T03:04:05.678Z"},
		{"empty timestamp", "x", 1, ""},
		{"invalid utf-8 fragment", "\xff\xfe", 1, "2024-01-02T03:04:05.678Z"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.fragment, tc.val, tc.timestamp)
			if !errors.Is(err, domain.ErrInvalidRecord) {
				t.Fatalf("expected ErrInvalidRecord, got %v", err)
			}
		})
	}
}

func TestNew_ZeroValAllowed(t *testing.T) {
	if _, err := New("x", 0, "2024-01-02T03:04:05.678Z"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMarshalJSON_Layout(t *testing.T) {
	r, _ := New(`\u{1f4a9}`, 7, "2024-01-02T03:04:05.678Z")
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"version":"v1","fragment":"\\u{1f4a9}","val":7,"timestamp":"2024-01-02T03:04:05.678Z"}`
	if string(data) != want {
		t.Errorf("got  %s\nwant %s", data, want)
	}
}

func TestJSON_RoundTrip(t *testing.T) {
	fragments := []string{"💩", `\u{1f4a9}`, "a<b>&c", "plain"}
	for _, f := range fragments {
		orig, err := New(f, 123456789, "2024-01-02T03:04:05.678Z")
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		data, err := json.Marshal(orig)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var got Record
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got != orig {
			t.Errorf("round trip mismatch: got %+v, want %+v", got, orig)
		}
	}
}

func TestUnmarshalJSON_RejectsUnknownVersion(t *testing.T) {
	var r Record
	err := json.Unmarshal([]byte(`{"version":"v2","fragment":"x","val":1,"timestamp":"t"}`), &r)
	if !errors.Is(err, domain.ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 678_900_000, time.FixedZone("X", 3600))
	if got := FormatTimestamp(ts); got != "2024-01-02T02:04:05.678Z" {
		t.Errorf("FormatTimestamp() = %q", got)
	}
}
