package services

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/sdmtech/sdmcrm/internal/domain"
	"github.com/sdmtech/sdmcrm/internal/domain/models"
	"github.com/sdmtech/sdmcrm/internal/infrastructure/persistence"
)

// Transactor runs fn inside a database transaction carried by ctx.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserStore persists sign-in credentials.
type UserStore interface {
	Insert(ctx context.Context, u *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	UpdatePassword(ctx context.Context, id, hash string) error
	TouchSignIn(ctx context.Context, id string, at time.Time) error
}

// SessionStore persists issued sessions.
type SessionStore interface {
	InsertSession(ctx context.Context, s *models.Session) error
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)
	RevokeSession(ctx context.Context, sessionID string) error
	RevokeOtherSessions(ctx context.Context, userID, keepID string) (int64, error)
	RevokeAllSessions(ctx context.Context, userID string) (int64, error)
	UpdateLastActivity(ctx context.Context, sessionID string, at time.Time) error
	DeleteStale(ctx context.Context, cutoff time.Time) (int64, error)
}

// ProfileStore persists profiles.
type ProfileStore interface {
	Insert(ctx context.Context, p *models.Profile) error
	FindByUserID(ctx context.Context, userID string) (*models.Profile, error)
	ListWithRoles(ctx context.Context) ([]models.Employee, error)
	Update(ctx context.Context, userID string, upd persistence.ProfileUpdate, at time.Time) (bool, error)
	SetActive(ctx context.Context, userID string, active bool, at time.Time) (bool, error)
	Count(ctx context.Context) (int, error)
}

// RoleStore persists user_roles.
type RoleStore interface {
	GetRole(ctx context.Context, userID string) (models.Role, error)
	ReplaceRole(ctx context.Context, userID string, role models.Role, at time.Time) error
	CountByRole(ctx context.Context, role models.Role) (int, error)
	ListUserIDsByRole(ctx context.Context, role models.Role) ([]string, error)
}

// TaskStore persists tasks.
type TaskStore interface {
	Insert(ctx context.Context, t *models.Task) error
	FindByID(ctx context.Context, id string) (*models.Task, error)
	List(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	ListOverdue(ctx context.Context, now time.Time) ([]models.Task, error)
	UpdateFields(ctx context.Context, id string, upd models.TaskUpdate, at time.Time) (bool, error)
	TransitionStatus(ctx context.Context, id string, from, to domain.TaskStatus, at time.Time) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	StatusCounts(ctx context.Context, assignedTo string) (models.TaskCounts, error)
	AssigneeStatusCounts(ctx context.Context) ([]persistence.AssigneeStatusCount, error)
}

// SubmissionStore persists task submissions.
type SubmissionStore interface {
	Insert(ctx context.Context, s *models.TaskSubmission) error
	FindByID(ctx context.Context, id string) (*models.TaskSubmission, error)
	List(ctx context.Context, submittedBy string) ([]models.TaskSubmission, error)
	Review(ctx context.Context, id, status string, comments *string, reviewerID string, at time.Time) (bool, error)
}

// JobStore persists job postings.
type JobStore interface {
	Insert(ctx context.Context, j *models.Job) error
	FindByID(ctx context.Context, id string) (*models.Job, error)
	List(ctx context.Context, activeOnly bool) ([]models.Job, error)
	Update(ctx context.Context, j *models.Job) (bool, error)
	SetActive(ctx context.Context, id string, active bool, at time.Time) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// ApplicationStore persists job applications.
type ApplicationStore interface {
	Insert(ctx context.Context, a *models.JobApplication) error
	FindByID(ctx context.Context, id string) (*models.JobApplication, error)
	List(ctx context.Context, userID string) ([]models.JobApplication, error)
	ResumePathsByJob(ctx context.Context, jobID string) ([]string, error)
	UpdateStatus(ctx context.Context, id, status, reviewerID string, at time.Time) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// ServiceOfferingStore persists the marketing services grid.
type ServiceOfferingStore interface {
	Insert(ctx context.Context, s *models.ServiceOffering) error
	FindByID(ctx context.Context, id string) (*models.ServiceOffering, error)
	List(ctx context.Context, activeOnly bool) ([]models.ServiceOffering, error)
	Update(ctx context.Context, s *models.ServiceOffering) (bool, error)
	Count(ctx context.Context) (int, error)
	SetActive(ctx context.Context, id string, active bool, at time.Time) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// TestimonialStore persists testimonials.
type TestimonialStore interface {
	Insert(ctx context.Context, t *models.Testimonial) error
	FindByID(ctx context.Context, id string) (*models.Testimonial, error)
	List(ctx context.Context, activeOnly bool) ([]models.Testimonial, error)
	Update(ctx context.Context, t *models.Testimonial) (bool, error)
	SetActive(ctx context.Context, id string, active bool, at time.Time) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// ContactStore persists contact form messages.
type ContactStore interface {
	Insert(ctx context.Context, c *models.ContactSubmission) error
	FindByID(ctx context.Context, id string) (*models.ContactSubmission, error)
	List(ctx context.Context) ([]models.ContactSubmission, error)
	SetRead(ctx context.Context, id string, read bool) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// ContentStore persists editable website sections.
type ContentStore interface {
	List(ctx context.Context) ([]models.WebsiteContent, error)
	FindByKey(ctx context.Context, key string) (*models.WebsiteContent, error)
	Upsert(ctx context.Context, key string, title, content *string, metadata []byte, at time.Time) error
}

// NotificationStore persists in-app notifications.
type NotificationStore interface {
	Insert(ctx context.Context, n *models.Notification) error
	ListForRecipient(ctx context.Context, recipientID string, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, recipientID string) (bool, error)
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)
}

// FileStore records stored objects.
type FileStore interface {
	Upsert(ctx context.Context, f *models.StoredFile) error
	Find(ctx context.Context, bucket, path string) (*models.StoredFile, error)
}

// ObjectStore holds bucket objects.
type ObjectStore interface {
	Put(ctx context.Context, bucket, objectPath string, r io.Reader, limit int64) (string, int64, error)
	Open(bucket, objectPath string) (*os.File, error)
	Remove(bucket, objectPath string) error
	PublicURL(bucket, objectPath string) (string, error)
	SignedURL(bucket, objectPath string, ttl time.Duration) (string, time.Time, error)
	VerifySignedToken(token string) (string, string, error)
	IsPublic(bucket string) bool
}

// Compile-time checks that the repositories satisfy the stores.
var (
	_ UserStore            = (*persistence.UserRepository)(nil)
	_ SessionStore         = (*persistence.SessionRepository)(nil)
	_ ProfileStore         = (*persistence.ProfileRepository)(nil)
	_ RoleStore            = (*persistence.RoleRepository)(nil)
	_ TaskStore            = (*persistence.TaskRepository)(nil)
	_ SubmissionStore      = (*persistence.SubmissionRepository)(nil)
	_ JobStore             = (*persistence.JobRepository)(nil)
	_ ApplicationStore     = (*persistence.ApplicationRepository)(nil)
	_ ServiceOfferingStore = (*persistence.ServiceOfferingRepository)(nil)
	_ TestimonialStore     = (*persistence.TestimonialRepository)(nil)
	_ ContactStore         = (*persistence.ContactRepository)(nil)
	_ ContentStore         = (*persistence.ContentRepository)(nil)
	_ NotificationStore    = (*persistence.NotificationRepository)(nil)
	_ FileStore            = (*persistence.FileRepository)(nil)
)
