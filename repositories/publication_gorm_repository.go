package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/blogpub/models"
)

// GORMPublicationRepository is a GORM implementation of PublicationRepository.
// Comments live in their own table and are preloaded newest first.
type GORMPublicationRepository struct {
	db *gorm.DB
}

// NewGORMPublicationRepository creates a new instance of GORMPublicationRepository.
func NewGORMPublicationRepository(db *gorm.DB) *GORMPublicationRepository {
	return &GORMPublicationRepository{db: db}
}

func withComments(tx *gorm.DB) *gorm.DB {
	return tx.Preload("Comments", func(db *gorm.DB) *gorm.DB {
		return db.Order("date DESC").Order("seq DESC")
	})
}

func (r *GORMPublicationRepository) Create(ctx context.Context, p *models.Publication) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("failed to create publication: %w", err)
	}
	p.InLocation()
	return nil
}

func (r *GORMPublicationRepository) List(ctx context.Context, offset, limit int) ([]models.Publication, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Publication{}).
		Where("status = ?", true).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count publications: %w", err)
	}

	var items []models.Publication
	if err := withComments(r.db.WithContext(ctx)).
		Where("status = ?", true).
		Order("date DESC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list publications: %w", err)
	}
	return items, total, nil
}

func (r *GORMPublicationRepository) FindByID(ctx context.Context, id string) (*models.Publication, error) {
	var p models.Publication
	if err := withComments(r.db.WithContext(ctx)).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get publication %s: %w", id, err)
	}
	return &p, nil
}

func (r *GORMPublicationRepository) Filter(ctx context.Context, f PublicationFilter) ([]models.Publication, error) {
	q := withComments(r.db.WithContext(ctx)).Where("status = ?", true)
	if f.Course != "" {
		q = q.Where("course = ?", f.Course)
	}
	if f.Title != "" {
		q = q.Where("LOWER(title) LIKE ? ESCAPE '!'", "%"+escapeLike(strings.ToLower(f.Title))+"%")
	}
	if f.Date != nil {
		q = q.Where("date >= ?", f.Date.From)
		if f.Date.IncludeTo {
			q = q.Where("date <= ?", f.Date.To)
		} else {
			q = q.Where("date < ?", f.Date.To)
		}
	}
	if f.Ascending {
		q = q.Order("date ASC")
	} else {
		q = q.Order("date DESC")
	}

	var items []models.Publication
	if err := q.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to filter publications: %w", err)
	}
	return items, nil
}

// AddComment inserts the comment row only when the parent is visible. The
// insert is its own statement, so concurrent comments never overwrite each other.
func (r *GORMPublicationRepository) AddComment(ctx context.Context, id string, c models.Comment) (*models.Publication, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var parent models.Publication
		if err := tx.Select("id", "status").First(&parent, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !parent.Status {
			return ErrNotFound
		}

		c.PublicationID = id
		if err := tx.Create(&c).Error; err != nil {
			return err
		}
		return tx.Model(&models.Publication{}).
			Where("id = ?", id).
			UpdateColumn("updated_at", time.Now()).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to add comment to publication %s: %w", id, err)
	}
	return r.FindByID(ctx, id)
}

func (r *GORMPublicationRepository) SoftDelete(ctx context.Context, id string) (*models.Publication, error) {
	// Some drivers report zero affected rows when status is already false, so
	// existence is decided by the reload rather than RowsAffected.
	if err := r.db.WithContext(ctx).Model(&models.Publication{}).
		Where("id = ?", id).
		Update("status", false).Error; err != nil {
		return nil, fmt.Errorf("failed to delete publication %s: %w", id, err)
	}
	return r.FindByID(ctx, id)
}

func (r *GORMPublicationRepository) ImageInUse(ctx context.Context, image string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Publication{}).
		Where("image = ?", image).
		Count(&n).Error; err != nil {
		return false, fmt.Errorf("failed to look up image %s: %w", image, err)
	}
	return n > 0, nil
}

func (r *GORMPublicationRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// escapeLike makes user input match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
