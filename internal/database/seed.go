package database

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"omexcatalog/internal/category"
	"omexcatalog/internal/models"
	"omexcatalog/internal/slug"
)

//go:embed seed/categories.yaml
var defaultSeed []byte

// SeedNode is one category in a hierarchical seed file.
type SeedNode struct {
	Name        string     `yaml:"name"`
	NameEN      string     `yaml:"name_en"`
	Slug        string     `yaml:"slug"`
	Icon        string     `yaml:"icon"`
	Description string     `yaml:"description"`
	Children    []SeedNode `yaml:"children"`
}

type seedFile struct {
	Categories []SeedNode `yaml:"categories"`
}

// SeedResult counts what a seed run did.
type SeedResult struct {
	Created int
	Skipped int
}

// CategorySeeder is the part of the category service seeding needs.
type CategorySeeder interface {
	FindBySlug(ctx context.Context, slug string) (*models.Category, error)
	Create(ctx context.Context, in models.CreateCategoryInput) (*models.Category, error)
	RebuildCache(ctx context.Context) error
}

// LoadSeed parses a YAML seed file with a top-level categories list.
func LoadSeed(r io.Reader) ([]SeedNode, error) {
	var f seedFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("seed file is empty")
		}
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	if len(f.Categories) == 0 {
		return nil, fmt.Errorf("seed file has no categories")
	}
	return f.Categories, nil
}

// DefaultSeed returns the built-in OMEX category hierarchy.
func DefaultSeed() ([]SeedNode, error) {
	return LoadSeed(bytes.NewReader(defaultSeed))
}

// Seed creates the categories in nodes through svc, parents before
// children, and then rebuilds the category cache. Sibling order becomes
// priority. It is safe to run repeatedly: categories that already exist
// under the same parent are kept and reused.
//
// A slug already taken elsewhere in the tree is qualified with the parent
// slug ("filtry-powietrza-glowne"); if that is taken too the node and its
// subtree are skipped.
func Seed(ctx context.Context, svc CategorySeeder, nodes []SeedNode) (SeedResult, error) {
	var res SeedResult
	if err := seedLevel(ctx, svc, nodes, nil, "", &res); err != nil {
		return res, err
	}
	if err := svc.RebuildCache(ctx); err != nil {
		return res, err
	}
	slog.Info("categories seeded", "created", res.Created, "skipped", res.Skipped)
	return res, nil
}

func seedLevel(ctx context.Context, svc CategorySeeder, nodes []SeedNode, parentID *uuid.UUID, parentSlug string, res *SeedResult) error {
	for i, n := range nodes {
		c, err := seedNode(ctx, svc, n, i, parentID, parentSlug, res)
		if err != nil {
			return err
		}
		if c == nil {
			continue
		}
		if err := seedLevel(ctx, svc, n.Children, &c.ID, c.Slug, res); err != nil {
			return err
		}
	}
	return nil
}

// seedNode creates one category or finds the one created by an earlier run.
// Returns nil when the node must be skipped.
func seedNode(ctx context.Context, svc CategorySeeder, n SeedNode, priority int, parentID *uuid.UUID, parentSlug string, res *SeedResult) (*models.Category, error) {
	base := n.Slug
	if base == "" {
		base = slug.Generate(n.Name)
	}
	candidates := []string{base}
	if parentSlug != "" {
		candidates = append(candidates, parentSlug+"-"+base)
	}

	for _, s := range candidates {
		existing, err := svc.FindBySlug(ctx, s)
		if err != nil {
			return nil, fmt.Errorf("seed %q: %w", s, err)
		}
		if existing != nil {
			if sameParent(existing.ParentID, parentID) {
				res.Skipped++
				return existing, nil
			}
			continue
		}

		created, err := svc.Create(ctx, models.CreateCategoryInput{
			Name:        n.Name,
			NameEN:      n.NameEN,
			Slug:        s,
			Description: n.Description,
			Icon:        n.Icon,
			Priority:    priority,
			ParentID:    parentID,
		})
		if err != nil {
			return nil, fmt.Errorf("seed %q: %w", s, err)
		}
		res.Created++
		return created, nil
	}

	slog.Warn("seed category skipped, slug taken", "name", n.Name, "slug", base)
	res.Skipped += 1 + countSeedNodes(n.Children)
	return nil, nil
}

func sameParent(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// countSeedNodes returns the number of nodes in a seed forest.
func countSeedNodes(nodes []SeedNode) int {
	n := 0
	for _, c := range nodes {
		n += 1 + countSeedNodes(c.Children)
	}
	return n
}

var _ CategorySeeder = (*category.Service)(nil)
