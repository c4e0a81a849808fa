package logger

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestStatus(t *testing.T) {
	cases := map[string]error{
		"ok":        nil,
		"fail":      errors.New("upload failed"),
		"cancelled": fmt.Errorf("upload: %w", context.Canceled),
	}
	for want, err := range cases {
		if got := Status(err); got != want {
			t.Fatalf("Status(%v) = %q, want %q", err, got, want)
		}
	}
}

func TestRoundMS(t *testing.T) {
	if got := RoundMS(1499 * time.Microsecond); got != time.Millisecond {
		t.Fatalf("RoundMS rounded to %v", got)
	}
	if got := RoundMS(-time.Second); got != 0 {
		t.Fatalf("negative duration gave %v", got)
	}
}

func TestSummarizeStrings(t *testing.T) {
	files := []string{"000001_create_users.up.sql", "000002_create_media_records.up.sql"}
	if got, cut := SummarizeStrings(files, 6); got != files[0]+", "+files[1] || cut {
		t.Fatalf("full list = %q, %v", got, cut)
	}
	if got, cut := SummarizeStrings(files, 1); got != files[0] || !cut {
		t.Fatalf("limited list = %q, %v", got, cut)
	}
	if got, cut := SummarizeStrings(files, 0); got != "" || !cut {
		t.Fatalf("zero limit = %q, %v", got, cut)
	}
	if got, cut := SummarizeStrings(nil, 0); got != "" || cut {
		t.Fatalf("empty input = %q, %v", got, cut)
	}
}
