package room

import (
	"strings"
	"testing"

	domain "github.com/example/watch-together/domain/room"
)

func TestValidPlaybackAction(t *testing.T) {
	tests := []struct {
		action string
		want   bool
	}{
		{action: "load_track", want: true},
		{action: "play", want: true},
		{action: "pause", want: true},
		{action: "seek", want: true},
		{action: "track_ended", want: true},
		{action: "stop", want: false},
		{action: "PLAY", want: false},
		{action: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			if got := ValidPlaybackAction(tt.action); got != tt.want {
				t.Errorf("ValidPlaybackAction(%q) = %v, want %v", tt.action, got, tt.want)
			}
		})
	}
}

func TestClampRunes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{name: "short string untouched", in: "abc", max: 10, want: "abc"},
		{name: "exact length untouched", in: "abc", max: 3, want: "abc"},
		{name: "truncated", in: "abcdef", max: 3, want: "abc"},
		{name: "multibyte runes kept whole", in: "héllo wörld", max: 5, want: "héllo"},
		{name: "zero max", in: "abc", max: 0, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clampRunes(tt.in, tt.max); got != tt.want {
				t.Errorf("clampRunes(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}

func TestNormalizeDisplayName(t *testing.T) {
	t.Run("kept as is", func(t *testing.T) {
		if got := normalizeDisplayName("Alice"); got != "Alice" {
			t.Errorf("normalizeDisplayName() = %q, want %q", got, "Alice")
		}
	})

	t.Run("trimmed", func(t *testing.T) {
		if got := normalizeDisplayName("  Alice  "); got != "Alice" {
			t.Errorf("normalizeDisplayName() = %q, want %q", got, "Alice")
		}
	})

	t.Run("clamped", func(t *testing.T) {
		long := strings.Repeat("a", MaxDisplayNameLen+10)
		got := normalizeDisplayName(long)
		if len([]rune(got)) != MaxDisplayNameLen {
			t.Errorf("normalizeDisplayName() length = %d, want %d", len([]rune(got)), MaxDisplayNameLen)
		}
	})

	t.Run("empty gets a guest name", func(t *testing.T) {
		got := normalizeDisplayName("   ")
		if !strings.HasPrefix(got, "Guest-") {
			t.Errorf("normalizeDisplayName() = %q, want Guest- prefix", got)
		}
		if len(got) > MaxDisplayNameLen {
			t.Errorf("normalizeDisplayName() length = %d, over limit", len(got))
		}
	})
}

func TestSanitizeTrack(t *testing.T) {
	t.Run("valid track", func(t *testing.T) {
		got, ok := sanitizeTrack(domain.Track{ID: "abc", Title: "Song"})
		if !ok {
			t.Fatal("sanitizeTrack() rejected a valid track")
		}
		if got.ID != "abc" || got.Title != "Song" {
			t.Errorf("sanitizeTrack() = %+v", got)
		}
	})

	t.Run("missing ID rejected", func(t *testing.T) {
		if _, ok := sanitizeTrack(domain.Track{Title: "Song"}); ok {
			t.Error("sanitizeTrack() should reject a track without ID")
		}
	})

	t.Run("whitespace ID rejected", func(t *testing.T) {
		if _, ok := sanitizeTrack(domain.Track{ID: "   "}); ok {
			t.Error("sanitizeTrack() should reject a whitespace ID")
		}
	})

	t.Run("long fields clamped", func(t *testing.T) {
		long := strings.Repeat("x", MaxTrackFieldLen*3)
		got, ok := sanitizeTrack(domain.Track{ID: long, Title: long})
		if !ok {
			t.Fatal("sanitizeTrack() rejected a long track")
		}
		if len(got.ID) != MaxTrackFieldLen {
			t.Errorf("sanitizeTrack() ID length = %d, want %d", len(got.ID), MaxTrackFieldLen)
		}
		if len(got.Title) != MaxTrackFieldLen {
			t.Errorf("sanitizeTrack() title length = %d, want %d", len(got.Title), MaxTrackFieldLen)
		}
	})
}
