package staticphrasebook

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"haggle/internal/app/ports"
	"haggle/internal/domain/negotiation"
)

// Provider reads phrase-bank overrides from <Root>/<personality>.json.
type Provider struct {
	Root string
}

var ErrInvalidPhrasebookPath = errors.New("invalid phrasebook filepath")

func (p Provider) Phrasebook(_ context.Context, personality negotiation.Personality) ([]byte, error) {
	path, err := secureJoin(p.Root, string(personality)+".json")
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ports.ErrNotFound
	}
	return b, err
}

func secureJoin(root, rel string) (string, error) {
	rel = strings.TrimSpace(rel)
	if rel == "" || rel == ".json" {
		return "", ErrInvalidPhrasebookPath
	}
	if filepath.IsAbs(rel) {
		return "", ErrInvalidPhrasebookPath
	}
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	target := filepath.Clean(filepath.Join(rootAbs, rel))
	prefix := rootAbs + string(filepath.Separator)
	if !strings.HasPrefix(target, prefix) {
		return "", ErrInvalidPhrasebookPath
	}
	return target, nil
}
