package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/sdmtech/sdmcrm/internal/application/services"
	"github.com/sdmtech/sdmcrm/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeContent struct {
	rows map[string]models.WebsiteContent
}

func (f *fakeContent) List(context.Context) ([]models.WebsiteContent, error) { return nil, nil }

func (f *fakeContent) FindByKey(_ context.Context, key string) (*models.WebsiteContent, error) {
	if r, ok := f.rows[key]; ok {
		return &r, nil
	}
	return nil, nil
}

func (f *fakeContent) Upsert(_ context.Context, key string, title, content *string, _ []byte, _ time.Time) error {
	f.rows[key] = models.WebsiteContent{SectionKey: key, Title: title, Content: content}
	return nil
}

type fakeOfferings struct {
	services.ServiceOfferingStore
	existing int
	inserted []*models.ServiceOffering
}

func (f *fakeOfferings) Count(context.Context) (int, error) { return f.existing, nil }

func (f *fakeOfferings) Insert(_ context.Context, s *models.ServiceOffering) error {
	f.inserted = append(f.inserted, s)
	return nil
}

func TestLoadSeedData(t *testing.T) {
	data, err := LoadSeedData()
	require.NoError(t, err)

	keys := make([]string, 0, len(data.Sections))
	for _, s := range data.Sections {
		keys = append(keys, s.Key)
		assert.NotEmpty(t, s.Content, s.Key)
	}
	assert.ElementsMatch(t, []string{"about_title", "about_description", "company_phone", "company_email", "company_address"}, keys)
	assert.Len(t, data.Services, 6)
}

func TestSeedFillsAnEmptySite(t *testing.T) {
	data, err := LoadSeedData()
	require.NoError(t, err)
	content := &fakeContent{rows: map[string]models.WebsiteContent{}}
	offerings := &fakeOfferings{}

	require.NoError(t, NewSeeder(content, offerings, nil).Seed(context.Background(), data))

	assert.Len(t, content.rows, len(data.Sections))
	require.Len(t, offerings.inserted, len(data.Services))
	assert.Equal(t, 1, offerings.inserted[0].DisplayOrder)
	assert.Equal(t, "Software Development", offerings.inserted[0].Title)
	assert.True(t, offerings.inserted[5].IsActive)
}

func TestSeedKeepsEditedContent(t *testing.T) {
	data, err := LoadSeedData()
	require.NoError(t, err)
	edited := "Call us any time"
	content := &fakeContent{rows: map[string]models.WebsiteContent{
		"company_phone": {SectionKey: "company_phone", Content: &edited},
	}}
	offerings := &fakeOfferings{existing: 2}

	require.NoError(t, NewSeeder(content, offerings, nil).Seed(context.Background(), data))

	assert.Equal(t, "Call us any time", *content.rows["company_phone"].Content)
	assert.Len(t, content.rows, len(data.Sections))
	assert.Empty(t, offerings.inserted)
}
