package constants

// Table names
const (
	TableUser              = "users"
	TableSession           = "sessions"
	TableProfile           = "profiles"
	TableUserRole          = "user_roles"
	TableTask              = "tasks"
	TableTaskSubmission    = "task_submissions"
	TableJob               = "jobs"
	TableJobApplication    = "job_applications"
	TableService           = "services"
	TableTestimonial       = "testimonials"
	TableContactSubmission = "contact_submissions"
	TableWebsiteContent    = "website_content"
	TableNotification      = "notifications"
	TableStoredFile        = "stored_files"
)

// AllTables lists every table in creation order (parents before children).
var AllTables = []string{
	TableUser,
	TableSession,
	TableProfile,
	TableUserRole,
	TableTask,
	TableTaskSubmission,
	TableJob,
	TableJobApplication,
	TableService,
	TableTestimonial,
	TableContactSubmission,
	TableWebsiteContent,
	TableNotification,
	TableStoredFile,
}
