package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/cppla/blogpub/models"
)

// ErrNotFound is returned when a publication does not exist, or is not
// visible for operations that require a visible publication.
var ErrNotFound = errors.New("publication not found")

// DateRange bounds publication dates. From is inclusive; To is inclusive only
// when IncludeTo is set.
type DateRange struct {
	From      time.Time
	To        time.Time
	IncludeTo bool
}

// NewDateRange builds the filter window: [start, end] when both are given,
// [start, start+1 day) when only start is. Without start there is no window.
func NewDateRange(start, end *time.Time) *DateRange {
	if start == nil {
		return nil
	}
	if end != nil {
		return &DateRange{From: *start, To: *end, IncludeTo: true}
	}
	return &DateRange{From: *start, To: start.AddDate(0, 0, 1)}
}

// PublicationFilter is a conjunctive query over visible publications.
// Empty fields do not constrain the result.
type PublicationFilter struct {
	Course    string
	Title     string
	Date      *DateRange
	Ascending bool
}

// PublicationRepository defines the interface for publication data access.
type PublicationRepository interface {
	// Create assigns the id and persists a new publication.
	Create(ctx context.Context, p *models.Publication) error
	// List returns one page of visible publications, newest date first, and
	// the total number of visible publications.
	List(ctx context.Context, offset, limit int) ([]models.Publication, int64, error)
	// FindByID returns the publication regardless of its status.
	FindByID(ctx context.Context, id string) (*models.Publication, error)
	Filter(ctx context.Context, f PublicationFilter) ([]models.Publication, error)
	// AddComment prepends c to a visible publication in a single write.
	AddComment(ctx context.Context, id string, c models.Comment) (*models.Publication, error)
	// SoftDelete sets status to false and returns the updated publication.
	SoftDelete(ctx context.Context, id string) (*models.Publication, error)
	// ImageInUse reports whether any publication references the stored file.
	ImageInUse(ctx context.Context, image string) (bool, error)
	Ping(ctx context.Context) error
}
