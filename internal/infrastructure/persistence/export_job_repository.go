package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/datapadi/web/internal/domain/printing"
	"github.com/datapadi/web/internal/domain/shared"
	"github.com/datapadi/web/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormExportJobRepository implements ExportJobRepository using GORM
type GormExportJobRepository struct {
	db *gorm.DB
}

// NewGormExportJobRepository creates a new GormExportJobRepository
func NewGormExportJobRepository(db *gorm.DB) *GormExportJobRepository {
	return &GormExportJobRepository{db: db}
}

// FindByIDForOwner finds a job by ID within the owner's jobs
func (r *GormExportJobRepository) FindByIDForOwner(ctx context.Context, ownerID string, id uuid.UUID) (*printing.ExportJob, error) {
	var model models.ExportJobModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND id = ?", ownerID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForOwner lists the owner's jobs
func (r *GormExportJobRepository) FindAllForOwner(ctx context.Context, ownerID string, filter printing.ExportJobFilter) ([]printing.ExportJob, error) {
	var jobModels []models.ExportJobModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ExportJobModel{}).Where("owner_id = ?", ownerID), filter)

	if err := query.Find(&jobModels).Error; err != nil {
		return nil, err
	}
	return toDomainJobs(jobModels), nil
}

// CountForOwner returns the number of the owner's jobs matching the filter
func (r *GormExportJobRepository) CountForOwner(ctx context.Context, ownerID string, filter printing.ExportJobFilter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.ExportJobModel{}).Where("owner_id = ?", ownerID)
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindByFingerprint finds completed jobs of the owner that rendered the same content
func (r *GormExportJobRepository) FindByFingerprint(ctx context.Context, ownerID, fingerprint string) ([]printing.ExportJob, error) {
	var jobModels []models.ExportJobModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND fingerprint = ? AND status = ?", ownerID, fingerprint, string(printing.JobStatusCompleted)).
		Order("created_at DESC").
		Find(&jobModels).Error; err != nil {
		return nil, err
	}
	return toDomainJobs(jobModels), nil
}

// Save saves a job (insert or update)
func (r *GormExportJobRepository) Save(ctx context.Context, job *printing.ExportJob) error {
	model := models.ExportJobModelFromDomain(job)
	return r.db.WithContext(ctx).Save(model).Error
}

// DeleteOlderThan deletes jobs created before the cutoff
func (r *GormExportJobRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.ExportJobModel{})
	return result.RowsAffected, result.Error
}

func toDomainJobs(jobModels []models.ExportJobModel) []printing.ExportJob {
	jobs := make([]printing.ExportJob, len(jobModels))
	for i := range jobModels {
		jobs[i] = *jobModels[i].ToDomain()
	}
	return jobs
}

// applyFilter applies filter options to the query
func (r *GormExportJobRepository) applyFilter(query *gorm.DB, filter printing.ExportJobFilter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	return query.Order(exportJobOrdering.clause(filter.OrderBy, filter.OrderDir))
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormExportJobRepository) applyFilterWithoutPagination(query *gorm.DB, filter printing.ExportJobFilter) *gorm.DB {
	if filter.Channel != nil {
		query = query.Where("channel = ?", string(*filter.Channel))
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	return query
}

// Ensure GormExportJobRepository implements ExportJobRepository
var _ printing.ExportJobRepository = (*GormExportJobRepository)(nil)
