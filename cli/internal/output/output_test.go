package output

import (
	"errors"
	"testing"
	"time"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		input int64
		want  string
	}{
		{0, "0 B"},
		{1, "1 B"},
		{512, "512 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
		{1073741824, "1024.0 MB"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := FormatSize(tt.input)
			if got != tt.want {
				t.Errorf("FormatSize(%d) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestProgress(t *testing.T) {
	tests := []struct {
		percent int
		want    string
	}{
		{0, "\rf.txt [                              ]   0%"},
		{50, "\rf.txt [===============               ]  50%"},
		{100, "\rf.txt [==============================] 100%"},
		{140, "\rf.txt [==============================] 100%"},
		{-3, "\rf.txt [                              ]   0%"},
	}

	for _, tt := range tests {
		if got := Progress("f.txt", tt.percent); got != tt.want {
			t.Errorf("Progress(%d) = %q, want %q", tt.percent, got, tt.want)
		}
	}
}

func TestProgressEnd(t *testing.T) {
	if got := ProgressEnd("f.txt", nil); got != "\rf.txt [==============================] 100%\n" {
		t.Errorf("ProgressEnd on success = %q", got)
	}
	if got := ProgressEnd("f.txt", errors.New("api: 502: Failed to upload file.")); got != "\n" {
		t.Errorf("ProgressEnd on failure = %q, want a bare newline", got)
	}
}

func TestRelativeTime(t *testing.T) {
	t.Run("just now", func(t *testing.T) {
		got := RelativeTime(time.Now())
		if got != "just now" {
			t.Errorf("expected 'just now', got %q", got)
		}
	})

	t.Run("minutes ago", func(t *testing.T) {
		got := RelativeTime(time.Now().Add(-5 * time.Minute))
		if got != "5m ago" {
			t.Errorf("expected '5m ago', got %q", got)
		}
	})

	t.Run("hours ago", func(t *testing.T) {
		got := RelativeTime(time.Now().Add(-3 * time.Hour))
		if got != "3h ago" {
			t.Errorf("expected '3h ago', got %q", got)
		}
	})

	t.Run("days ago", func(t *testing.T) {
		got := RelativeTime(time.Now().Add(-7 * 24 * time.Hour))
		if got != "7d ago" {
			t.Errorf("expected '7d ago', got %q", got)
		}
	})

	t.Run("date format for old timestamps", func(t *testing.T) {
		old := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
		got := RelativeTime(old)
		if got != "2024-01-15" {
			t.Errorf("expected date format, got %q", got)
		}
	})
}

func TestShortMIME(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"application/pdf", "pdf"},
		{"image/png", "png"},
		{"text/plain", "plain"},
		{"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "sheet"},
		{"unknown", "unknown"},
		{"plaintext", "plaintext"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := shortMIME(tt.input)
			if got != tt.want {
				t.Errorf("shortMIME(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
