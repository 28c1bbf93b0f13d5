package shared

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNormalizeTag(t *testing.T) {
	tc := []struct {
		name string
		in   string
		want string
	}{
		{name: "basic normalization", in: "Beagle", want: "beagle"},
		{name: "extra whitespace", in: "  Golden   Retriever  ", want: "golden retriever"},
		{name: "mixed case", in: "SmAlL & FuRrY", want: "small & furry"},
		{name: "empty", in: "   ", want: ""},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeTag(tt.in); got != tt.want {
				t.Errorf("NormalizeTag(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeTags(t *testing.T) {
	t.Run("drops empties and duplicates", func(t *testing.T) {
		got := NormalizeTags([]string{"Dog", " dog ", "", "Cat"})
		if len(got) != 2 || got[0] != "dog" || got[1] != "cat" {
			t.Errorf("NormalizeTags() = %v, want [dog cat]", got)
		}
	})

	t.Run("nil input yields empty non-nil slice", func(t *testing.T) {
		got := NormalizeTags(nil)
		if got == nil {
			t.Fatal("NormalizeTags(nil) should not return nil")
		}
		if len(got) != 0 {
			t.Errorf("expected empty slice, got %v", got)
		}
	})
}

func TestLogger(t *testing.T) {
	t.Run("SetLogLevel", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewLogger(&buf)

		SetLogLevel(l, "warn")
		if l.GetLevel() != log.WarnLevel {
			t.Errorf("expected warn level, got %v", l.GetLevel())
		}

		SetLogLevel(l, "bogus")
		if l.GetLevel() != log.InfoLevel {
			t.Errorf("expected fallback to info level, got %v", l.GetLevel())
		}
	})

	t.Run("WithLogger adds fields", func(t *testing.T) {
		var buf bytes.Buffer
		l := WithLogger(NewLogger(&buf), "listing_id", "pet-1")
		l.Info("cycle started")

		if !strings.Contains(buf.String(), "listing_id=pet-1") {
			t.Errorf("expected child logger field in output, got %q", buf.String())
		}
	})
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == "" || a == b {
		t.Errorf("expected unique non-empty ids, got %q and %q", a, b)
	}
}
