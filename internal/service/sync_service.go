package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sguni/academic-api/internal/models"
)

type syncUserSource interface {
	ListWithRole(ctx context.Context) ([]models.UserDetail, error)
}

type syncCatalogSource interface {
	ListSpecialities(ctx context.Context) ([]models.Speciality, error)
	ListCareers(ctx context.Context) ([]models.Career, error)
	ListCycles(ctx context.Context) ([]models.Cycle, error)
	ListSubjects(ctx context.Context) ([]models.Subject, error)
}

type referenceWriter interface {
	UpsertUsers(ctx context.Context, refs []models.UserReference) (int, error)
	UpsertSpecialities(ctx context.Context, refs []models.SpecialityReference) (int, error)
	UpsertCareers(ctx context.Context, refs []models.CareerReference) (int, error)
	UpsertSubjects(ctx context.Context, refs []models.SubjectReference) (int, error)
	UpsertCycles(ctx context.Context, refs []models.CycleReference) (int, error)
}

// SyncService is the reference sync engine. It pulls full snapshots from the
// users and academic databases and upserts denormalized copies into the
// profiles database, keyed by source id. Runs are idempotent and triggered on
// demand; there is no background loop.
type SyncService struct {
	users       syncUserSource
	catalog     syncCatalogSource
	refs        referenceWriter
	metrics     *MetricsService
	readTimeout time.Duration
	logger      *zap.Logger
}

// NewSyncService constructs SyncService.
func NewSyncService(users syncUserSource, catalog syncCatalogSource, refs referenceWriter, metrics *MetricsService, readTimeout time.Duration, logger *zap.Logger) *SyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if readTimeout <= 0 {
		readTimeout = 30 * time.Second
	}
	return &SyncService{users: users, catalog: catalog, refs: refs, metrics: metrics, readTimeout: readTimeout, logger: logger}
}

type catalogSnapshot struct {
	specialities []models.Speciality
	careers      []models.Career
	cycles       []models.Cycle
	subjects     []models.Subject

	specialitiesErr error
	careersErr      error
	cyclesErr       error
	subjectsErr     error
}

// Run executes one full synchronisation pass. Source reads happen
// concurrently since they target different databases; upserts run kind by
// kind, and a failure in one kind is recorded in the report without rolling
// back or skipping the others.
func (s *SyncService) Run(ctx context.Context) (*models.SyncReport, error) {
	start := time.Now()
	readCtx, cancel := context.WithTimeout(ctx, s.readTimeout)
	defer cancel()

	var (
		users    []models.UserDetail
		usersErr error
		snap     catalogSnapshot
	)

	g := new(errgroup.Group)
	g.Go(func() error {
		users, usersErr = s.users.ListWithRole(readCtx)
		return nil
	})
	g.Go(func() error {
		snap.specialities, snap.specialitiesErr = s.catalog.ListSpecialities(readCtx)
		snap.careers, snap.careersErr = s.catalog.ListCareers(readCtx)
		snap.cycles, snap.cyclesErr = s.catalog.ListCycles(readCtx)
		snap.subjects, snap.subjectsErr = s.catalog.ListSubjects(readCtx)
		return nil
	})
	_ = g.Wait()

	report := &models.SyncReport{}

	report.Results = append(report.Results, s.syncUsers(ctx, users, usersErr))
	report.Results = append(report.Results, s.syncSpecialities(ctx, snap.specialities, snap.specialitiesErr))
	report.Results = append(report.Results, s.syncCareers(ctx, snap.careers, snap.careersErr))
	report.Results = append(report.Results, s.syncSubjects(ctx, snap.subjects, snap.subjectsErr))
	report.Results = append(report.Results, s.syncCycles(ctx, snap.cycles, snap.cyclesErr))

	s.metrics.ObserveSyncRun(time.Since(start))
	if failed := report.Failed(); len(failed) > 0 {
		s.logger.Warn("reference sync finished with failures", zap.Any("kinds", failed))
	} else {
		s.logger.Info("reference sync finished", zap.Int("kinds", len(report.Results)))
	}
	return report, nil
}

func (s *SyncService) syncUsers(ctx context.Context, users []models.UserDetail, readErr error) models.SyncKindResult {
	result := models.SyncKindResult{Kind: models.SyncKindUsers}
	if readErr != nil {
		s.logger.Error("read users snapshot", zap.Error(readErr))
		result.Error = "failed to read users from source"
		return result
	}
	refs := make([]models.UserReference, 0, len(users))
	for _, u := range users {
		refs = append(refs, models.UserReference{
			ID:       u.ID,
			Name:     u.Name,
			Email:    u.Email,
			RoleID:   u.RoleID,
			RoleName: u.RoleName,
			Status:   u.Status,
		})
	}
	return s.finish(ctx, result, func() (int, error) { return s.refs.UpsertUsers(ctx, refs) })
}

func (s *SyncService) syncSpecialities(ctx context.Context, rows []models.Speciality, readErr error) models.SyncKindResult {
	result := models.SyncKindResult{Kind: models.SyncKindSpecialities}
	if readErr != nil {
		s.logger.Error("read specialities snapshot", zap.Error(readErr))
		result.Error = "failed to read specialities from source"
		return result
	}
	refs := make([]models.SpecialityReference, 0, len(rows))
	for _, sp := range rows {
		refs = append(refs, models.SpecialityReference{ID: sp.ID, Name: sp.Name})
	}
	return s.finish(ctx, result, func() (int, error) { return s.refs.UpsertSpecialities(ctx, refs) })
}

func (s *SyncService) syncCareers(ctx context.Context, rows []models.Career, readErr error) models.SyncKindResult {
	result := models.SyncKindResult{Kind: models.SyncKindCareers}
	if readErr != nil {
		s.logger.Error("read careers snapshot", zap.Error(readErr))
		result.Error = "failed to read careers from source"
		return result
	}
	refs := make([]models.CareerReference, 0, len(rows))
	for _, c := range rows {
		refs = append(refs, models.CareerReference{ID: c.ID, Name: c.Name, TotalCicles: c.TotalCicles})
	}
	return s.finish(ctx, result, func() (int, error) { return s.refs.UpsertCareers(ctx, refs) })
}

func (s *SyncService) syncSubjects(ctx context.Context, rows []models.Subject, readErr error) models.SyncKindResult {
	result := models.SyncKindResult{Kind: models.SyncKindSubjects}
	if readErr != nil {
		s.logger.Error("read subjects snapshot", zap.Error(readErr))
		result.Error = "failed to read subjects from source"
		return result
	}
	refs := make([]models.SubjectReference, 0, len(rows))
	for _, sub := range rows {
		// Spot counters are seed values consumed only on first insert; the
		// upsert never overwrites them on existing rows.
		refs = append(refs, models.SubjectReference{
			ID:             sub.ID,
			Name:           sub.Name,
			CareerID:       sub.CareerID,
			CicleNumber:    sub.CicleNumber,
			TotalSpots:     sub.TotalSpots,
			AvailableSpots: sub.AvailableSpots,
		})
	}
	return s.finish(ctx, result, func() (int, error) { return s.refs.UpsertSubjects(ctx, refs) })
}

func (s *SyncService) syncCycles(ctx context.Context, rows []models.Cycle, readErr error) models.SyncKindResult {
	result := models.SyncKindResult{Kind: models.SyncKindCycles}
	if readErr != nil {
		s.logger.Error("read cycles snapshot", zap.Error(readErr))
		result.Error = "failed to read cycles from source"
		return result
	}
	refs := make([]models.CycleReference, 0, len(rows))
	for _, c := range rows {
		refs = append(refs, models.CycleReference{ID: c.ID, Name: c.Name, Year: c.Year, Period: c.Period})
	}
	return s.finish(ctx, result, func() (int, error) { return s.refs.UpsertCycles(ctx, refs) })
}

func (s *SyncService) finish(ctx context.Context, result models.SyncKindResult, upsert func() (int, error)) models.SyncKindResult {
	count, err := upsert()
	if err != nil {
		s.logger.Error("upsert references", zap.String("kind", string(result.Kind)), zap.Error(err))
		result.Error = "failed to upsert references"
		return result
	}
	result.Synced = count
	s.metrics.RecordSyncKind(string(result.Kind), count)
	s.logger.Info("references synced", zap.String("kind", string(result.Kind)), zap.Int("count", count))
	return result
}
