package notify

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/pawalert/internal/models"
)

func TestRender(t *testing.T) {
	t.Run("NewListingMatch", func(t *testing.T) {
		msg, err := Render(NewListingMatch, models.Contact{Name: "Ada"}, TemplateData{PetName: "Copper", PetBreed: "Beagle", PetAge: "8 weeks"})
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		if msg.Subject != "New Pet Available for Adoption: Copper" {
			t.Errorf("unexpected subject %q", msg.Subject)
		}
		for _, want := range []string{"Hello Ada,", "<strong>Copper</strong> - Beagle, 8 weeks"} {
			if !strings.Contains(msg.HTML, want) {
				t.Errorf("body missing %q:\n%s", want, msg.HTML)
			}
		}
	})

	t.Run("escapes listing fields", func(t *testing.T) {
		msg, err := Render(NewListingMatch, models.Contact{Name: "Ada"}, TemplateData{PetName: "<script>x</script>"})
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		if strings.Contains(msg.HTML, "<script>") {
			t.Error("pet name should be HTML-escaped")
		}
	})

	t.Run("unknown kind", func(t *testing.T) {
		if _, err := Render("promo", models.Contact{}, TemplateData{}); err == nil {
			t.Error("expected error for unknown template kind")
		}
	})
}

func TestLogSender(t *testing.T) {
	var buf bytes.Buffer
	s := NewLogSender(log.New(&buf))
	err := s.Send(context.Background(), models.Contact{UserID: "u1", Email: "ada@example.com"}, NewListingMatch, TemplateData{PetName: "Copper"})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if !strings.Contains(buf.String(), "ada@example.com") {
		t.Errorf("expected recipient in log output, got %q", buf.String())
	}
}
