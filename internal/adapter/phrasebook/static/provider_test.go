package staticphrasebook

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"haggle/internal/app/ports"
	"haggle/internal/domain/negotiation"
)

func TestProvider_ReadsOverrideFile(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "aggressive.json"), []byte(`{"buyer":{}}`), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}

	p := Provider{Root: root}
	b, err := p.Phrasebook(context.Background(), negotiation.PersonalityAggressive)
	if err != nil {
		t.Fatalf("phrasebook: %v", err)
	}
	if string(b) != `{"buyer":{}}` {
		t.Fatalf("unexpected content: %q", string(b))
	}

	if _, err := p.Phrasebook(context.Background(), negotiation.PersonalityDiplomatic); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing override, got %v", err)
	}
}

func TestProvider_RejectsPathTraversal(t *testing.T) {
	root := t.TempDir()
	parent := filepath.Dir(root)
	outsidePath := filepath.Join(parent, "outside.json")
	if err := os.WriteFile(outsidePath, []byte("secret"), 0o644); err != nil {
		t.Fatalf("write outside: %v", err)
	}
	t.Cleanup(func() { _ = os.Remove(outsidePath) })

	p := Provider{Root: root}
	if _, err := p.Phrasebook(context.Background(), negotiation.Personality("../outside")); !errors.Is(err, ErrInvalidPhrasebookPath) {
		t.Fatalf("expected path traversal to be rejected, got %v", err)
	}
	if _, err := p.Phrasebook(context.Background(), ""); !errors.Is(err, ErrInvalidPhrasebookPath) {
		t.Fatalf("expected empty personality to be rejected, got %v", err)
	}
}

var _ ports.PhrasebookProvider = Provider{}
