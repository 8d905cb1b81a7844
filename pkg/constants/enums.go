package constants

// Task priorities
const (
	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
)

// Submission review statuses
const (
	ReviewStatusPending  = "pending"
	ReviewStatusApproved = "approved"
	ReviewStatusRejected = "rejected"
)

// Job application statuses
const (
	ApplicationStatusPending     = "pending"
	ApplicationStatusReviewed    = "reviewed"
	ApplicationStatusShortlisted = "shortlisted"
	ApplicationStatusRejected    = "rejected"
)

// Job defaults
const (
	JobTypeFullTime = "Full-time"
)

// Storage buckets
const (
	BucketAvatars     = "avatars"
	BucketResumes     = "resumes"
	BucketCompanyData = "companydata"
)

// ImageTypes maps the raster image extensions accepted for avatars to
// their content types. Only these types are served inline.
var ImageTypes = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// IsInlineImage reports whether contentType is one of ImageTypes.
func IsInlineImage(contentType string) bool {
	for _, t := range ImageTypes {
		if t == contentType {
			return true
		}
	}
	return false
}

// Notification types
const (
	NotificationTaskAssigned  = "task_assigned"
	NotificationTaskSubmitted = "task_submitted"
	NotificationTaskReviewed  = "task_reviewed"
	NotificationTaskOverdue   = "task_overdue"
)

// Sort directions
const (
	SortASC  = "ASC"
	SortDESC = "DESC"
)

// Limits
const (
	RecentTasksLimit      = 5
	NotificationListLimit = 20
	MinPasswordLength     = 6
	MaxPasswordLength     = 72 // bcrypt truncates beyond this
	MaxRating             = 5
	MinRating             = 1
)

// IsValidPriority reports whether p is a known task priority.
func IsValidPriority(p string) bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

// IsValidApplicationStatus reports whether s is a known job application status.
func IsValidApplicationStatus(s string) bool {
	switch s {
	case ApplicationStatusPending, ApplicationStatusReviewed, ApplicationStatusShortlisted, ApplicationStatusRejected:
		return true
	}
	return false
}
