package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"modeldeck/internal/domain"
)

//go:embed default_seed.toml
var defaultSeed []byte

const seedDateLayout = "2006-01-02"

// seedFile is the on-disk shape of a seed file, TOML or YAML
type seedFile struct {
	Models []seedModel `toml:"models" yaml:"models"`
}

type seedModel struct {
	ID           string   `toml:"id" yaml:"id"`
	Name         string   `toml:"name" yaml:"name"`
	Author       string   `toml:"author" yaml:"author"`
	Summary      string   `toml:"summary" yaml:"summary"`
	Architecture string   `toml:"architecture" yaml:"architecture"`
	Parameters   string   `toml:"parameters" yaml:"parameters"`
	SizeBytes    int64    `toml:"size_bytes" yaml:"size_bytes"`
	Downloads    int64    `toml:"downloads" yaml:"downloads"`
	Tags         []string `toml:"tags" yaml:"tags"`
	Featured     bool     `toml:"featured" yaml:"featured"`
	Released     string   `toml:"released" yaml:"released"` // YYYY-MM-DD
}

// LoadSeed reads a seed file; the format is chosen by extension
// (.toml, .yaml or .yml).
func LoadSeed(path string) ([]domain.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var sf seedFile
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, &sf)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &sf)
	default:
		return nil, fmt.Errorf("unsupported seed format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}

	return sf.toModels()
}

// DefaultSeed returns the built-in catalog.
func DefaultSeed() []domain.Model {
	var sf seedFile
	if err := toml.Unmarshal(defaultSeed, &sf); err != nil {
		panic(fmt.Sprintf("catalog: built-in seed is invalid: %v", err))
	}
	models, err := sf.toModels()
	if err != nil {
		panic(fmt.Sprintf("catalog: built-in seed is invalid: %v", err))
	}
	return models
}

func (sf seedFile) toModels() ([]domain.Model, error) {
	models := make([]domain.Model, 0, len(sf.Models))
	seen := make(map[string]bool, len(sf.Models))
	for i, sm := range sf.Models {
		if sm.ID == "" || sm.Name == "" {
			return nil, fmt.Errorf("seed entry %d: id and name are required", i)
		}
		if seen[sm.ID] {
			return nil, fmt.Errorf("seed entry %d: duplicate id %q", i, sm.ID)
		}
		seen[sm.ID] = true

		m := domain.Model{
			ID:           sm.ID,
			Name:         sm.Name,
			Author:       sm.Author,
			Summary:      sm.Summary,
			Architecture: sm.Architecture,
			Parameters:   sm.Parameters,
			SizeBytes:    sm.SizeBytes,
			Downloads:    sm.Downloads,
			Tags:         sm.Tags,
			Featured:     sm.Featured,
		}
		if sm.Released != "" {
			released, err := time.Parse(seedDateLayout, sm.Released)
			if err != nil {
				return nil, fmt.Errorf("seed entry %q: released: %w", sm.ID, err)
			}
			m.Released = released
		}
		models = append(models, m)
	}
	return models, nil
}
