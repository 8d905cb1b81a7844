package models

import (
	"encoding/json"
	"time"
)

// Job is an open position on the careers page.
type Job struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Department   string    `json:"department"`
	Location     string    `json:"location"`
	Type         string    `json:"type"`
	Description  *string   `json:"description,omitempty"`
	Requirements []string  `json:"requirements"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// JobApplication is a candidate's application to a job.
type JobApplication struct {
	ID          string     `json:"id"`
	JobID       string     `json:"job_id"`
	UserID      string     `json:"user_id"`
	FullName    string     `json:"full_name"`
	Email       string     `json:"email"`
	Phone       *string    `json:"phone,omitempty"`
	ResumeURL   *string    `json:"resume_url,omitempty"` // storage path inside the resumes bucket
	CoverLetter *string    `json:"cover_letter,omitempty"`
	Status      string     `json:"status"`
	ReviewedBy  *string    `json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
	AppliedAt   time.Time  `json:"applied_at"`
	JobTitle    *string    `json:"job_title,omitempty"` // joined from jobs
}

// ServiceOffering is an entry of the marketing services grid.
type ServiceOffering struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Icon         string    `json:"icon"`
	DisplayOrder int       `json:"display_order"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Testimonial is a client quote.
type Testimonial struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Company   string    `json:"company"`
	Content   string    `json:"content"`
	Rating    int       `json:"rating"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ContactSubmission is a message left through the contact form.
type ContactSubmission struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// WebsiteContent is an editable text block identified by section key.
type WebsiteContent struct {
	ID         string          `json:"id"`
	SectionKey string          `json:"section_key"`
	Title      *string         `json:"title,omitempty"`
	Content    *string         `json:"content,omitempty"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Notification is an in-app message for one user.
type Notification struct {
	ID               string    `json:"id"`
	RecipientID      string    `json:"recipient_id"`
	Title            string    `json:"title"`
	Body             string    `json:"body"`
	Link             string    `json:"link"`
	NotificationType string    `json:"notification_type"`
	IsRead           bool      `json:"is_read"`
	CreatedAt        time.Time `json:"created_at"`
}

// StoredFile records an object written to a storage bucket.
type StoredFile struct {
	ID          string    `json:"id"`
	Bucket      string    `json:"bucket"`
	Path        string    `json:"path"`
	OwnerID     *string   `json:"owner_id,omitempty"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}
