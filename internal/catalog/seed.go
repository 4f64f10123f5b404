// Package catalog loads the platform's category and service catalog.
package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"instainstru/internal/model"
	"instainstru/internal/repository"
	"instainstru/internal/search"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// File is the YAML layout of a catalog seed.
type File struct {
	Version    int            `yaml:"version"`
	Categories []CategoryYAML `yaml:"categories"`
}

// CategoryYAML is one category and its services.
type CategoryYAML struct {
	Name        string        `yaml:"name"`
	Slug        string        `yaml:"slug"`
	Description string        `yaml:"description"`
	Services    []ServiceYAML `yaml:"services"`
}

// ServiceYAML is one catalog service. Keywords listed here are merged with
// the generated ones.
type ServiceYAML struct {
	Name        string   `yaml:"name"`
	Slug        string   `yaml:"slug,omitempty"`
	Description string   `yaml:"description"`
	Keywords    []string `yaml:"keywords,omitempty"`
}

// Parse decodes and validates a catalog file.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog yaml: %w", err)
	}
	seen := make(map[string]bool)
	for i, c := range f.Categories {
		if strings.TrimSpace(c.Name) == "" {
			return nil, fmt.Errorf("category %d: name is required", i)
		}
		for j, s := range c.Services {
			if strings.TrimSpace(s.Name) == "" {
				return nil, fmt.Errorf("category %q service %d: name is required", c.Name, j)
			}
			slug := s.Slug
			if slug == "" {
				slug = Slugify(s.Name)
			}
			if seen[slug] {
				return nil, fmt.Errorf("duplicate service slug %q", slug)
			}
			seen[slug] = true
		}
	}
	return &f, nil
}

// Default returns the built-in catalog.
func Default() (*File, error) {
	return Parse(defaultCatalog)
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases s and joins its alphanumeric runs with dashes.
func Slugify(s string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// Seed inserts f when the catalog is empty. It reports whether anything was written.
func Seed(ctx context.Context, tx repository.Transactor, repo repository.CatalogRepository, f *File, logger zerolog.Logger) (bool, error) {
	n, err := repo.CountCategories(ctx)
	if err != nil {
		return false, fmt.Errorf("count categories: %w", err)
	}
	if n > 0 {
		logger.Debug().Int("categories", n).Msg("catalog already seeded")
		return false, nil
	}

	services := 0
	err = tx.WithinTx(ctx, func(ctx context.Context) error {
		for i, c := range f.Categories {
			slug := c.Slug
			if slug == "" {
				slug = Slugify(c.Name)
			}
			cat := &model.Category{
				ID:           uuid.NewString(),
				Name:         c.Name,
				Slug:         slug,
				Description:  c.Description,
				DisplayOrder: i + 1,
			}
			if err := repo.CreateCategory(ctx, cat); err != nil {
				return fmt.Errorf("create category %s: %w", cat.Slug, err)
			}
			for j, s := range c.Services {
				svc := &model.CatalogService{
					ID:           uuid.NewString(),
					CategoryID:   cat.ID,
					Name:         s.Name,
					Slug:         s.Slug,
					Description:  s.Description,
					Keywords:     mergeKeywords(search.GenerateKeywords(s.Name, s.Description, c.Name), s.Keywords),
					DisplayOrder: j + 1,
				}
				if svc.Slug == "" {
					svc.Slug = Slugify(s.Name)
				}
				if err := repo.CreateService(ctx, svc); err != nil {
					return fmt.Errorf("create service %s: %w", svc.Slug, err)
				}
				services++
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	logger.Info().Str("event", "catalog_seed").Int("categories", len(f.Categories)).Int("services", services).Msg("catalog seeded")
	return true, nil
}

func mergeKeywords(generated, extra []string) []string {
	if len(extra) == 0 {
		return generated
	}
	seen := make(map[string]bool, len(generated))
	out := append([]string(nil), generated...)
	for _, k := range generated {
		seen[k] = true
	}
	for _, k := range extra {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" && !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}
