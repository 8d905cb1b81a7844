package services

import (
	"context"
	"sort"

	"github.com/sdmtech/sdmcrm/internal/domain/models"
	"github.com/sdmtech/sdmcrm/internal/infrastructure/persistence"
	"github.com/sdmtech/sdmcrm/pkg/constants"
	"golang.org/x/sync/errgroup"
)

// AnalyticsService computes the CRM dashboard and performance figures.
type AnalyticsService struct {
	tasks    TaskStore
	profiles ProfileStore
}

// NewAnalyticsService creates an AnalyticsService.
func NewAnalyticsService(tasks TaskStore, profiles ProfileStore) *AnalyticsService {
	return &AnalyticsService{tasks: tasks, profiles: profiles}
}

// Dashboard returns org-wide figures for admins and the caller's own figures
// for employees.
func (s *AnalyticsService) Dashboard(ctx context.Context, p *models.Principal) (*models.Dashboard, error) {
	if !p.IsAdmin() {
		counts, err := s.tasks.StatusCounts(ctx, p.UserID)
		if err != nil {
			return nil, err
		}
		recent, err := s.tasks.List(ctx, models.TaskFilter{AssignedTo: p.UserID, Limit: constants.RecentTasksLimit})
		if err != nil {
			return nil, err
		}
		return &models.Dashboard{Counts: counts, RecentTasks: nonNilTasks(recent)}, nil
	}

	var d models.Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.profiles.Count(gctx)
		d.TotalEmployees = n
		return err
	})
	g.Go(func() error {
		c, err := s.tasks.StatusCounts(gctx, "")
		d.Counts = c
		return err
	})
	g.Go(func() error {
		recent, err := s.tasks.List(gctx, models.TaskFilter{Limit: constants.RecentTasksLimit})
		d.RecentTasks = nonNilTasks(recent)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Analytics returns overall counts and per-employee completion rates.
func (s *AnalyticsService) Analytics(ctx context.Context) (*models.Analytics, error) {
	var (
		counts    models.TaskCounts
		rows      []persistence.AssigneeStatusCount
		employees []models.Employee
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		counts, err = s.tasks.StatusCounts(gctx, "")
		return err
	})
	g.Go(func() (err error) {
		rows, err = s.tasks.AssigneeStatusCounts(gctx)
		return err
	})
	g.Go(func() (err error) {
		employees, err = s.profiles.ListWithRoles(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &models.Analytics{
		Counts:         counts,
		CompletionRate: models.Percent(counts.Approved, counts.Total),
		Employees:      employeePerformance(employees, rows),
	}, nil
}

// Performance returns the caller's own statistics.
func (s *AnalyticsService) Performance(ctx context.Context, p *models.Principal) (*models.Performance, error) {
	counts, err := s.tasks.StatusCounts(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	return &models.Performance{
		Counts:         counts,
		CompletionRate: models.Percent(counts.Approved, counts.Total),
		ApprovalRate:   models.Percent(counts.Approved, counts.Approved+counts.Rejected),
	}, nil
}

// employeePerformance folds per-assignee status counts into one row per
// employee. Employees without tasks are omitted; rows are ordered by
// completion rate, highest first, then by name.
func employeePerformance(employees []models.Employee, rows []persistence.AssigneeStatusCount) []models.EmployeePerformance {
	byUser := make(map[string]*models.TaskCounts, len(employees))
	for _, r := range rows {
		c, ok := byUser[r.UserID]
		if !ok {
			c = &models.TaskCounts{}
			byUser[r.UserID] = c
		}
		c.Add(r.Status, r.Count)
	}

	out := make([]models.EmployeePerformance, 0, len(byUser))
	for _, e := range employees {
		c, ok := byUser[e.UserID]
		if !ok || c.Total == 0 {
			continue
		}
		out = append(out, models.EmployeePerformance{
			UserID:         e.UserID,
			FullName:       e.FullName,
			Total:          c.Total,
			Completed:      c.Approved,
			Pending:        c.Pending + c.InProgress,
			CompletionRate: models.Percent(c.Approved, c.Total),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CompletionRate != out[j].CompletionRate {
			return out[i].CompletionRate > out[j].CompletionRate
		}
		return out[i].FullName < out[j].FullName
	})
	return out
}

func nonNilTasks(t []models.Task) []models.Task {
	if t == nil {
		return []models.Task{}
	}
	return t
}
