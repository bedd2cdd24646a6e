package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"safety-card-bot/internal/domain/checklist"
	"safety-card-bot/internal/domain/entity"
)

// File формат YAML-файла каталога СИЗ.
type File struct {
	Version    string            `yaml:"version"`
	Categories []entity.Category `yaml:"categories"`
}

// Loaded каталог и хеш файла, из которого он прочитан.
type Loaded struct {
	Catalog *checklist.Catalog
	Version string
	SHA256  string
}

// Load читает каталог из path. Пустой путь означает стандартный каталог.
func Load(ctx context.Context, path string) (*Loaded, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(path) == "" {
		return &Loaded{Catalog: checklist.DefaultCatalog(), Version: "builtin"}, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(raw)
}

// Parse разбирает и проверяет содержимое файла каталога.
func Parse(raw []byte) (*Loaded, error) {
	var file File
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if strings.TrimSpace(file.Version) == "" {
		return nil, errors.New("catalog: version is required")
	}
	if len(file.Categories) == 0 {
		return nil, errors.New("catalog: categories is empty")
	}

	c, err := checklist.NewCatalog(file.Categories)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(raw)
	return &Loaded{
		Catalog: c,
		Version: file.Version,
		SHA256:  hex.EncodeToString(sum[:]),
	}, nil
}
