package traceid

import (
	"regexp"
	"strings"
	"testing"
)

func TestNew_Format(t *testing.T) {
	id := New("web")

	re := regexp.MustCompile(`^web-\d{13}-[0-9a-z]{9}$`)
	if !re.MatchString(id) {
		t.Fatalf("unexpected trace id format: %q", id)
	}
}

func TestNew_PrefixDistinguishesClients(t *testing.T) {
	if !strings.HasPrefix(New("admin"), "admin-") {
		t.Error("expected admin prefix")
	}
	if !strings.HasPrefix(New("web"), "web-") {
		t.Error("expected web prefix")
	}
}

func TestNew_UniquePerCall(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := New("web")
		if seen[id] {
			t.Fatalf("duplicate trace id: %q", id)
		}
		seen[id] = true
	}
}
