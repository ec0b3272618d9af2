package repositories

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cppla/blogpub/models"
	"github.com/cppla/blogpub/utils"
)

const publicationCachePrefix = "cache:publication:"

// CachedPublicationRepository serves FindByID from Redis and drops the entry
// whenever that publication changes. Every other call goes straight through.
type CachedPublicationRepository struct {
	PublicationRepository
	rc  *redis.Client
	ttl time.Duration
}

// NewCachedPublicationRepository wraps next. Entries expire after ttl, which
// bounds staleness if an invalidation is lost.
func NewCachedPublicationRepository(next PublicationRepository, rc *redis.Client, ttl time.Duration) *CachedPublicationRepository {
	return &CachedPublicationRepository{PublicationRepository: next, rc: rc, ttl: ttl}
}

func publicationKey(id string) string {
	return publicationCachePrefix + id
}

func (r *CachedPublicationRepository) FindByID(ctx context.Context, id string) (*models.Publication, error) {
	var cached models.Publication
	if utils.CacheGetJSON(ctx, r.rc, publicationKey(id), &cached) {
		cached.InLocation()
		return &cached, nil
	}

	p, err := r.PublicationRepository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	utils.CacheSetJSON(ctx, r.rc, publicationKey(id), p, r.ttl)
	return p, nil
}

func (r *CachedPublicationRepository) AddComment(ctx context.Context, id string, c models.Comment) (*models.Publication, error) {
	p, err := r.PublicationRepository.AddComment(ctx, id, c)
	utils.CacheDelete(ctx, r.rc, publicationKey(id))
	return p, err
}

func (r *CachedPublicationRepository) SoftDelete(ctx context.Context, id string) (*models.Publication, error) {
	p, err := r.PublicationRepository.SoftDelete(ctx, id)
	utils.CacheDelete(ctx, r.rc, publicationKey(id))
	return p, err
}
