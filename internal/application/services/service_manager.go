package services

import (
	"context"
	"fmt"

	"github.com/sdmtech/sdmcrm/internal/config"
	"github.com/sdmtech/sdmcrm/internal/domain/events"
	"github.com/sdmtech/sdmcrm/internal/infrastructure/database"
	"github.com/sdmtech/sdmcrm/internal/infrastructure/persistence"
	"github.com/sdmtech/sdmcrm/internal/infrastructure/storage"
	"github.com/sdmtech/sdmcrm/pkg/auth"
	"github.com/sdmtech/sdmcrm/pkg/constants"
	"go.uber.org/zap"
)

var _ ObjectStore = (*storage.LocalStore)(nil)

// ServiceManager orchestrates all services with dependency injection
type ServiceManager struct {
	db     *database.Connection
	logger *zap.Logger

	EventBus     *EventBus
	AuthStream   *AuthStream
	Auth         *AuthService
	Profiles     *ProfileService
	Employees    *EmployeeService
	Tasks        *TaskService
	Analytics    *AnalyticsService
	Jobs         *JobService
	Content      *ContentService
	Notification *NotificationService
	Storage      *StorageService
	Scheduler    *SchedulerService
}

// NewServiceManager creates a new service manager with all dependencies wired
func NewServiceManager(db *database.Connection, cfg *config.Config, logger *zap.Logger) (*ServiceManager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	sm := &ServiceManager{db: db, logger: logger}

	users := persistence.NewUserRepository(db)
	sessions := persistence.NewSessionRepository(db)
	profiles := persistence.NewProfileRepository(db)
	roles := persistence.NewRoleRepository(db)
	tasks := persistence.NewTaskRepository(db)

	objects, err := storage.NewLocalStore(cfg.Storage.Root, cfg.Storage.PublicBaseURL, cfg.Storage.SigningSecret,
		storage.Bucket{Name: constants.BucketAvatars, Public: true},
		storage.Bucket{Name: constants.BucketResumes},
		storage.Bucket{Name: constants.BucketCompanyData, Public: true},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Initialize services in dependency order
	sm.EventBus = NewEventBus(logger)
	sm.AuthStream = NewAuthStream(sm.EventBus, logger)
	registerAuditLog(sm.EventBus, logger)

	sm.Storage = NewStorageService(objects, persistence.NewFileRepository(db),
		cfg.Storage.MaxUploadBytes, cfg.Storage.SignedURLTTL, logger)
	sm.Auth = NewAuthService(AuthDeps{
		Tx:       db,
		Users:    users,
		Sessions: sessions,
		Profiles: profiles,
		Roles:    roles,
		Tokens:   auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL),
		Events:   sm.EventBus,
		Logger:   logger,
	})
	sm.Profiles = NewProfileService(profiles, sm.Storage)
	sm.Employees = NewEmployeeService(db, profiles, roles, sessions, sm.EventBus, logger)
	sm.Tasks = NewTaskService(db, tasks, persistence.NewSubmissionRepository(db), profiles, sm.EventBus, logger)
	sm.Analytics = NewAnalyticsService(tasks, profiles)
	sm.Jobs = NewJobService(persistence.NewJobRepository(db), persistence.NewApplicationRepository(db), sm.Storage, sm.EventBus, logger)
	sm.Content = NewContentService(db,
		persistence.NewServiceOfferingRepository(db),
		persistence.NewTestimonialRepository(db),
		persistence.NewContentRepository(db),
		persistence.NewContactRepository(db),
		sm.EventBus, logger)

	sm.Notification = NewNotificationService(persistence.NewNotificationRepository(db), roles, logger)
	sm.Notification.Register(sm.EventBus)

	sm.Scheduler, err = NewSchedulerService(sessions, tasks, sm.EventBus, ScheduleConfig{
		SessionSweep:     cfg.Scheduler.SessionSweep,
		OverdueCheck:     cfg.Scheduler.OverdueCheck,
		SessionRetention: cfg.Scheduler.SessionRetention,
	}, logger)
	if err != nil {
		return nil, err
	}

	return sm, nil
}

// Shutdown stops background work and waits for in-flight event handlers.
func (sm *ServiceManager) Shutdown(ctx context.Context) {
	sm.Scheduler.Stop(ctx)
	sm.AuthStream.Close()
	sm.Auth.Wait()
	sm.EventBus.Wait()
	sm.Notification.Unregister()
}

// registerAuditLog records every auth-state change.
func registerAuditLog(bus *EventBus, logger *zap.Logger) {
	audit := logger.Named("audit")
	for _, t := range []events.EventType{
		events.AuthSignedIn, events.AuthSignedOut, events.AuthPasswordChanged, events.AuthRoleChanged,
	} {
		bus.Subscribe(t, func(_ context.Context, payload interface{}) error {
			if e, ok := payload.(events.AuthEvent); ok {
				audit.Info(e.Type.String(),
					zap.String("user_id", e.UserID),
					zap.String("session_id", e.SessionID),
					zap.String("role", e.Role))
			}
			return nil
		})
	}
}
