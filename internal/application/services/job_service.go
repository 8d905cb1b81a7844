package services

import (
	"context"
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

var resumeExtensions = map[string]bool{"pdf": true, "doc": true, "docx": true}

// JobService manages job postings and applications.
type JobService struct {
	jobs         JobStore
	applications ApplicationStore
	storage      *StorageService
	events       ports.EventPublisher
	logger       *zap.Logger
	now          func() time.Time
}

// NewJobService creates a JobService.
func NewJobService(jobs JobStore, applications ApplicationStore, storage *StorageService, bus ports.EventPublisher, logger *zap.Logger) *JobService {
	return &JobService{jobs: jobs, applications: applications, storage: storage, events: bus, logger: logger, now: time.Now}
}

// JobInput is the body of job create and update requests.
type JobInput struct {
	Title        string   `json:"title"`
	Department   string   `json:"department"`
	Location     string   `json:"location"`
	Type         string   `json:"type"`
	Description  *string  `json:"description"`
	Requirements []string `json:"requirements"`
	IsActive     *bool    `json:"is_active"`
}

func (in JobInput) validate() error {
	switch {
	case strings.TrimSpace(in.Title) == "":
		return errors.NewValidationError("title", "Title is required")
	case strings.TrimSpace(in.Department) == "":
		return errors.NewValidationError("department", "Department is required")
	case strings.TrimSpace(in.Location) == "":
		return errors.NewValidationError("location", "Location is required")
	}
	return nil
}

// apply copies the input onto j.
func (in JobInput) apply(j *models.Job) {
	j.Title = strings.TrimSpace(in.Title)
	j.Department = strings.TrimSpace(in.Department)
	j.Location = strings.TrimSpace(in.Location)
	j.Type = strings.TrimSpace(in.Type)
	if j.Type == "" {
		j.Type = constants.JobTypeFullTime
	}
	j.Description = utils.StringPtr(strings.TrimSpace(utils.Deref(in.Description)))
	j.Requirements = make([]string, 0, len(in.Requirements))
	for _, r := range in.Requirements {
		if r = strings.TrimSpace(r); r != "" {
			j.Requirements = append(j.Requirements, r)
		}
	}
	if in.IsActive != nil {
		j.IsActive = *in.IsActive
	}
}

// ListActive returns the open positions, newest first.
func (s *JobService) ListActive(ctx context.Context) ([]models.Job, error) {
	return s.list(ctx, true)
}

// ListAll returns every posting for the admin table.
func (s *JobService) ListAll(ctx context.Context) ([]models.Job, error) {
	return s.list(ctx, false)
}

func (s *JobService) list(ctx context.Context, activeOnly bool) ([]models.Job, error) {
	jobs, err := s.jobs.List(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	if jobs == nil {
		jobs = []models.Job{}
	}
	return jobs, nil
}

// Get returns one job. Inactive jobs are hidden unless includeInactive.
func (s *JobService) Get(ctx context.Context, id string, includeInactive bool) (*models.Job, error) {
	j, err := s.jobs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if j == nil || (!j.IsActive && !includeInactive) {
		return nil, errors.NewNotFoundError("Job", id)
	}
	return j, nil
}

// Create adds a job posting. New postings are active unless stated otherwise.
func (s *JobService) Create(ctx context.Context, in JobInput) (*models.Job, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	j := &models.Job{ID: utils.GenerateID(), IsActive: true, CreatedAt: now, UpdatedAt: now}
	in.apply(j)
	if err := s.jobs.Insert(ctx, j); err != nil {
		return nil, err
	}
	return j, nil
}

// Update replaces the fields of a job posting.
func (s *JobService) Update(ctx context.Context, id string, in JobInput) (*models.Job, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	j, err := s.Get(ctx, id, true)
	if err != nil {
		return nil, err
	}
	in.apply(j)
	j.UpdatedAt = s.now().UTC()
	if _, err := s.jobs.Update(ctx, j); err != nil {
		return nil, err
	}
	return j, nil
}

// ToggleActive opens or closes a posting.
func (s *JobService) ToggleActive(ctx context.Context, id string) (*models.Job, error) {
	j, err := s.Get(ctx, id, true)
	if err != nil {
		return nil, err
	}
	j.IsActive = !j.IsActive
	if _, err := s.jobs.SetActive(ctx, id, j.IsActive, s.now()); err != nil {
		return nil, err
	}
	return j, nil
}

// Delete removes a posting together with its applications and their resumes.
func (s *JobService) Delete(ctx context.Context, id string) error {
	resumes, err := s.applications.ResumePathsByJob(ctx, id)
	if err != nil {
		return err
	}
	ok, err := s.jobs.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return errors.NewNotFoundError("Job", id)
	}
	for _, p := range resumes {
		if err := s.storage.Remove(constants.BucketResumes, p); err != nil {
			s.logger.Warn("failed to remove resume", zap.String("path", p), zap.Error(err))
		}
	}
	return nil
}

// ApplyInput is the form of POST /api/jobs/:id/apply.
type ApplyInput struct {
	FullName    string
	Email       string
	Phone       string
	CoverLetter string
	Resume      *Upload
}

// Apply records an application by userID to an active job. A resume, when
// attached, is stored privately at resumes/<user>/<job>-<unix ms>.<ext>.
func (s *JobService) Apply(ctx context.Context, userID, jobID string, in ApplyInput) (*models.JobApplication, error) {
	fullName := strings.TrimSpace(in.FullName)
	email := auth.NormalizeEmail(in.Email)
	if fullName == "" {
		return nil, errors.NewValidationError("full_name", "Full name is required")
	}
	if !auth.IsValidEmail(email) {
		return nil, errors.NewValidationError("email", "Please enter a valid email address")
	}
	job, err := s.Get(ctx, jobID, false)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	app := &models.JobApplication{
		ID:          utils.GenerateID(),
		JobID:       job.ID,
		UserID:      userID,
		FullName:    fullName,
		Email:       email,
		Phone:       utils.StringPtr(strings.TrimSpace(in.Phone)),
		CoverLetter: utils.StringPtr(strings.TrimSpace(in.CoverLetter)),
		Status:      constants.ApplicationStatusPending,
		AppliedAt:   now,
		JobTitle:    &job.Title,
	}

	if in.Resume != nil {
		ext := in.Resume.Ext()
		if !resumeExtensions[ext] {
			return nil, errors.NewValidationError("resume", "resume must be a PDF or Word document")
		}
		objectPath := fmt.Sprintf("%s/%s-%d.%s", userID, job.ID, now.UnixMilli(), ext)
		stored, err := s.storage.Store(ctx, constants.BucketResumes, objectPath, userID, in.Resume)
		if err != nil {
			return nil, err
		}
		app.ResumeURL = &stored
	}

	if err := s.applications.Insert(ctx, app); err != nil {
		if app.ResumeURL != nil {
			_ = s.storage.Remove(constants.BucketResumes, *app.ResumeURL)
		}
		return nil, err
	}

	s.logger.Info("job application received", zap.String("job_id", job.ID), zap.String("application_id", app.ID))
	s.events.PublishAsync(ctx, events.ApplicationReceived, events.SiteEvent{
		ID: app.ID, Name: app.FullName, Email: app.Email, About: job.Title,
	})
	return app, nil
}

// Applications lists applications newest first; all of them when userID is
// empty.
func (s *JobService) Applications(ctx context.Context, userID string) ([]models.JobApplication, error) {
	apps, err := s.applications.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if apps == nil {
		apps = []models.JobApplication{}
	}
	return apps, nil
}

// UpdateApplicationStatus records a review decision on an application.
func (s *JobService) UpdateApplicationStatus(ctx context.Context, reviewer *models.Principal, id, status string) (*models.JobApplication, error) {
	if !constants.IsValidApplicationStatus(status) {
		return nil, errors.NewValidationError("status", "status must be pending, reviewed, shortlisted or rejected")
	}
	ok, err := s.applications.UpdateStatus(ctx, id, status, reviewer.UserID, s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.NewNotFoundError("Application", id)
	}
	return s.applications.FindByID(ctx, id)
}

// DeleteApplication removes an application and its resume.
func (s *JobService) DeleteApplication(ctx context.Context, id string) error {
	app, err := s.applications.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if app == nil {
		return errors.NewNotFoundError("Application", id)
	}
	if _, err := s.applications.Delete(ctx, id); err != nil {
		return err
	}
	if app.ResumeURL != nil {
		if err := s.storage.Remove(constants.BucketResumes, *app.ResumeURL); err != nil {
			s.logger.Warn("failed to remove resume", zap.String("path", *app.ResumeURL), zap.Error(err))
		}
	}
	return nil
}

// ResumeURL returns a signed download URL for the application's resume.
func (s *JobService) ResumeURL(ctx context.Context, id string) (string, time.Time, error) {
	app, err := s.applications.FindByID(ctx, id)
	if err != nil {
		return "", time.Time{}, err
	}
	if app == nil {
		return "", time.Time{}, errors.NewNotFoundError("Application", id)
	}
	if app.ResumeURL == nil {
		return "", time.Time{}, errors.NewNotFoundError("Resume", id)
	}
	return s.storage.SignedURL(constants.BucketResumes, *app.ResumeURL)
}
