package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sdmtech/sdmcrm/internal/domain/events"
	"github.com/sdmtech/sdmcrm/internal/domain/models"
	"github.com/sdmtech/sdmcrm/internal/domain/ports"
	"github.com/sdmtech/sdmcrm/pkg/auth"
	"github.com/sdmtech/sdmcrm/pkg/constants"
	"github.com/sdmtech/sdmcrm/pkg/errors"
	"github.com/sdmtech/sdmcrm/pkg/utils"
	"go.uber.org/zap"
)

// ContentService serves and edits the marketing site: services grid,
// testimonials, text sections and the contact inbox.
type ContentService struct {
	tx           Transactor
	services     ServiceOfferingStore
	testimonials TestimonialStore
	content      ContentStore
	contacts     ContactStore
	events       ports.EventPublisher
	logger       *zap.Logger
	now          func() time.Time
}

// NewContentService creates a ContentService.
func NewContentService(tx Transactor, services ServiceOfferingStore, testimonials TestimonialStore, content ContentStore, contacts ContactStore, bus ports.EventPublisher, logger *zap.Logger) *ContentService {
	return &ContentService{
		tx:           tx,
		services:     services,
		testimonials: testimonials,
		content:      content,
		contacts:     contacts,
		events:       bus,
		logger:       logger,
		now:          time.Now,
	}
}

// ServiceInput is the body of service create and update requests.
type ServiceInput struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Icon         string `json:"icon"`
	DisplayOrder int    `json:"display_order"`
	IsActive     *bool  `json:"is_active"`
}

func (in ServiceInput) apply(s *models.ServiceOffering) error {
	if strings.TrimSpace(in.Title) == "" {
		return errors.NewValidationError("title", "Title is required")
	}
	if strings.TrimSpace(in.Description) == "" {
		return errors.NewValidationError("description", "Description is required")
	}
	s.Title = strings.TrimSpace(in.Title)
	s.Description = strings.TrimSpace(in.Description)
	s.Icon = strings.TrimSpace(in.Icon)
	s.DisplayOrder = in.DisplayOrder
	if in.IsActive != nil {
		s.IsActive = *in.IsActive
	}
	return nil
}

// Services returns the services grid ordered by display_order.
func (s *ContentService) Services(ctx context.Context, activeOnly bool) ([]models.ServiceOffering, error) {
	out, err := s.services.List(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.ServiceOffering{}
	}
	return out, nil
}

// CreateService adds a service offering.
func (s *ContentService) CreateService(ctx context.Context, in ServiceInput) (*models.ServiceOffering, error) {
	now := s.now().UTC()
	so := &models.ServiceOffering{ID: utils.GenerateID(), IsActive: true, CreatedAt: now, UpdatedAt: now}
	if err := in.apply(so); err != nil {
		return nil, err
	}
	if err := s.services.Insert(ctx, so); err != nil {
		return nil, err
	}
	return so, nil
}

// UpdateService replaces the fields of a service offering.
func (s *ContentService) UpdateService(ctx context.Context, id string, in ServiceInput) (*models.ServiceOffering, error) {
	so, err := s.findService(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := in.apply(so); err != nil {
		return nil, err
	}
	so.UpdatedAt = s.now().UTC()
	if _, err := s.services.Update(ctx, so); err != nil {
		return nil, err
	}
	return so, nil
}

// ToggleService shows or hides a service offering.
func (s *ContentService) ToggleService(ctx context.Context, id string) (*models.ServiceOffering, error) {
	so, err := s.findService(ctx, id)
	if err != nil {
		return nil, err
	}
	so.IsActive = !so.IsActive
	if _, err := s.services.SetActive(ctx, id, so.IsActive, s.now()); err != nil {
		return nil, err
	}
	return so, nil
}

// DeleteService removes a service offering.
func (s *ContentService) DeleteService(ctx context.Context, id string) error {
	ok, err := s.services.Delete(ctx, id)
	return matched(ok, err, "Service", id)
}

func (s *ContentService) findService(ctx context.Context, id string) (*models.ServiceOffering, error) {
	so, err := s.services.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if so == nil {
		return nil, errors.NewNotFoundError("Service", id)
	}
	return so, nil
}

// TestimonialInput is the body of testimonial create and update requests.
type TestimonialInput struct {
	Name      string  `json:"name"`
	Role      string  `json:"role"`
	Company   string  `json:"company"`
	Content   string  `json:"content"`
	Rating    int     `json:"rating"`
	AvatarURL *string `json:"avatar_url"`
	IsActive  *bool   `json:"is_active"`
}

func (in TestimonialInput) apply(t *models.Testimonial) error {
	if strings.TrimSpace(in.Name) == "" {
		return errors.NewValidationError("name", "Name is required")
	}
	if strings.TrimSpace(in.Content) == "" {
		return errors.NewValidationError("content", "Content is required")
	}
	rating := in.Rating
	if rating == 0 {
		rating = constants.MaxRating
	}
	if rating < constants.MinRating || rating > constants.MaxRating {
		return errors.NewValidationError("rating", fmt.Sprintf("rating must be between %d and %d", constants.MinRating, constants.MaxRating))
	}
	t.Name = strings.TrimSpace(in.Name)
	t.Role = strings.TrimSpace(in.Role)
	t.Company = strings.TrimSpace(in.Company)
	t.Content = strings.TrimSpace(in.Content)
	t.Rating = rating
	t.AvatarURL = utils.StringPtr(strings.TrimSpace(utils.Deref(in.AvatarURL)))
	if in.IsActive != nil {
		t.IsActive = *in.IsActive
	}
	return nil
}

// Testimonials returns testimonials newest first.
func (s *ContentService) Testimonials(ctx context.Context, activeOnly bool) ([]models.Testimonial, error) {
	out, err := s.testimonials.List(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Testimonial{}
	}
	return out, nil
}

// CreateTestimonial adds a testimonial. The rating defaults to 5.
func (s *ContentService) CreateTestimonial(ctx context.Context, in TestimonialInput) (*models.Testimonial, error) {
	now := s.now().UTC()
	t := &models.Testimonial{ID: utils.GenerateID(), IsActive: true, CreatedAt: now, UpdatedAt: now}
	if err := in.apply(t); err != nil {
		return nil, err
	}
	if err := s.testimonials.Insert(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// UpdateTestimonial replaces the fields of a testimonial.
func (s *ContentService) UpdateTestimonial(ctx context.Context, id string, in TestimonialInput) (*models.Testimonial, error) {
	t, err := s.findTestimonial(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := in.apply(t); err != nil {
		return nil, err
	}
	t.UpdatedAt = s.now().UTC()
	if _, err := s.testimonials.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// ToggleTestimonial shows or hides a testimonial.
func (s *ContentService) ToggleTestimonial(ctx context.Context, id string) (*models.Testimonial, error) {
	t, err := s.findTestimonial(ctx, id)
	if err != nil {
		return nil, err
	}
	t.IsActive = !t.IsActive
	if _, err := s.testimonials.SetActive(ctx, id, t.IsActive, s.now()); err != nil {
		return nil, err
	}
	return t, nil
}

// DeleteTestimonial removes a testimonial.
func (s *ContentService) DeleteTestimonial(ctx context.Context, id string) error {
	ok, err := s.testimonials.Delete(ctx, id)
	return matched(ok, err, "Testimonial", id)
}

func (s *ContentService) findTestimonial(ctx context.Context, id string) (*models.Testimonial, error) {
	t, err := s.testimonials.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, errors.NewNotFoundError("Testimonial", id)
	}
	return t, nil
}

// Sections returns every website section keyed by section_key.
func (s *ContentService) Sections(ctx context.Context) (map[string]models.WebsiteContent, error) {
	rows, err := s.content.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.WebsiteContent, len(rows))
	for _, r := range rows {
		out[r.SectionKey] = r
	}
	return out, nil
}

// SectionInput is one entry of a bulk content update.
type SectionInput struct {
	Title    *string         `json:"title"`
	Content  *string         `json:"content"`
	Metadata json.RawMessage `json:"metadata"`
}

// UpdateSections upserts every section in the map in one transaction.
func (s *ContentService) UpdateSections(ctx context.Context, in map[string]SectionInput) (map[string]models.WebsiteContent, error) {
	if len(in) == 0 {
		return nil, errors.NewValidationError("sections", "at least one section is required")
	}
	for key, sec := range in {
		if strings.TrimSpace(key) == "" {
			return nil, errors.NewValidationError("section_key", "section key must not be empty")
		}
		if len(sec.Metadata) > 0 && !json.Valid(sec.Metadata) {
			return nil, errors.NewValidationError("metadata", fmt.Sprintf("metadata of %q is not valid JSON", key))
		}
	}

	now := s.now().UTC()
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		for key, sec := range in {
			if err := s.content.Upsert(ctx, strings.TrimSpace(key), sec.Title, sec.Content, sec.Metadata, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Sections(ctx)
}

// ContactInput is the body of POST /api/site/contact.
type ContactInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// SubmitContact stores a contact form message.
func (s *ContentService) SubmitContact(ctx context.Context, in ContactInput) (*models.ContactSubmission, error) {
	c := &models.ContactSubmission{
		ID:        utils.GenerateID(),
		Name:      strings.TrimSpace(in.Name),
		Email:     auth.NormalizeEmail(in.Email),
		Subject:   strings.TrimSpace(in.Subject),
		Message:   strings.TrimSpace(in.Message),
		CreatedAt: s.now().UTC(),
	}
	switch {
	case c.Name == "":
		return nil, errors.NewValidationError("name", "Name is required")
	case !auth.IsValidEmail(c.Email):
		return nil, errors.NewValidationError("email", "Please enter a valid email address")
	case c.Subject == "":
		return nil, errors.NewValidationError("subject", "Subject is required")
	case c.Message == "":
		return nil, errors.NewValidationError("message", "Message is required")
	}

	if err := s.contacts.Insert(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info("contact message received", zap.String("contact_id", c.ID))
	s.events.PublishAsync(ctx, events.ContactReceived, events.SiteEvent{ID: c.ID, Name: c.Name, Email: c.Email, About: c.Subject})
	return c, nil
}

// Contacts returns the contact inbox newest first.
func (s *ContentService) Contacts(ctx context.Context) ([]models.ContactSubmission, error) {
	out, err := s.contacts.List(ctx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.ContactSubmission{}
	}
	return out, nil
}

// ToggleContactRead flips the read flag of a contact message.
func (s *ContentService) ToggleContactRead(ctx context.Context, id string) (*models.ContactSubmission, error) {
	c, err := s.contacts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, errors.NewNotFoundError("Contact", id)
	}
	c.IsRead = !c.IsRead
	if _, err := s.contacts.SetRead(ctx, id, c.IsRead); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteContact removes a contact message.
func (s *ContentService) DeleteContact(ctx context.Context, id string) error {
	ok, err := s.contacts.Delete(ctx, id)
	return matched(ok, err, "Contact", id)
}

// matched maps a write that hit no row to a NotFoundError.
func matched(ok bool, err error, resource, id string) error {
	if err != nil {
		return err
	}
	if !ok {
		return errors.NewNotFoundError(resource, id)
	}
	return nil
}
