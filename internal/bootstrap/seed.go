package bootstrap

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/sdmtech/sdmcrm/internal/application/services"
	"github.com/sdmtech/sdmcrm/internal/domain/models"
	"github.com/sdmtech/sdmcrm/pkg/utils"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

// SeedData is the default site content.
type SeedData struct {
	Sections []struct {
		Key     string `yaml:"key"`
		Title   string `yaml:"title"`
		Content string `yaml:"content"`
	} `yaml:"sections"`
	Services []struct {
		Title       string `yaml:"title"`
		Icon        string `yaml:"icon"`
		Description string `yaml:"description"`
	} `yaml:"services"`
}

// LoadSeedData parses the embedded seed file.
func LoadSeedData() (*SeedData, error) {
	var data SeedData
	if err := yaml.Unmarshal(seedYAML, &data); err != nil {
		return nil, fmt.Errorf("failed to parse seed.yaml: %w", err)
	}
	return &data, nil
}

// Seeder writes default content into an empty site.
type Seeder struct {
	content  services.ContentStore
	services services.ServiceOfferingStore
	logger   *zap.Logger
	now      func() time.Time
}

// NewSeeder creates a Seeder.
func NewSeeder(content services.ContentStore, offerings services.ServiceOfferingStore, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{content: content, services: offerings, logger: logger, now: time.Now}
}

// Seed inserts every missing website section, and the default services when
// none exist. Edited content is never overwritten.
func (s *Seeder) Seed(ctx context.Context, data *SeedData) error {
	s.logger.Info("🔧 Seeding site content...")
	now := s.now().UTC()

	added := 0
	for _, sec := range data.Sections {
		existing, err := s.content.FindByKey(ctx, sec.Key)
		if err != nil {
			return fmt.Errorf("failed to read section %s: %w", sec.Key, err)
		}
		if existing != nil {
			continue
		}
		if err := s.content.Upsert(ctx, sec.Key, utils.StringPtr(sec.Title), utils.StringPtr(sec.Content), nil, now); err != nil {
			return fmt.Errorf("failed to seed section %s: %w", sec.Key, err)
		}
		added++
	}
	s.logger.Info("   ✅ Website sections", zap.Int("added", added))

	n, err := s.services.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count services: %w", err)
	}
	if n > 0 {
		return nil
	}
	for i, svc := range data.Services {
		so := &models.ServiceOffering{
			ID:           utils.GenerateID(),
			Title:        svc.Title,
			Description:  svc.Description,
			Icon:         svc.Icon,
			DisplayOrder: i + 1,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.services.Insert(ctx, so); err != nil {
			return fmt.Errorf("failed to seed service %q: %w", svc.Title, err)
		}
	}
	s.logger.Info("   ✅ Default services", zap.Int("added", len(data.Services)))
	return nil
}
