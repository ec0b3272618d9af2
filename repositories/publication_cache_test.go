package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/blogpub/models"
)

// countingRepo counts FindByID calls that reach the store.
type countingRepo struct {
	PublicationRepository
	finds int
}

func (c *countingRepo) FindByID(ctx context.Context, id string) (*models.Publication, error) {
	c.finds++
	return c.PublicationRepository.FindByID(ctx, id)
}

func TestCachedPublicationRepository(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })

	store := &countingRepo{PublicationRepository: newSQLiteRepo(t)}
	repo := NewCachedPublicationRepository(store, rc, time.Minute)
	ctx := context.Background()

	p := seed(t, repo, "Cached post", models.CourseTaller, day(2024, 2, 1))

	first, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, store.finds, "second read served from cache")
	assert.Equal(t, first.Title, second.Title)
	assert.True(t, first.Date.Equal(second.Date))
	assert.Equal(t, models.Location(), second.Date.Location())
	assert.True(t, mr.Exists(publicationKey(p.ID)))

	_, err = repo.AddComment(ctx, p.ID, models.NewComment("Ana", "invalidate me"))
	require.NoError(t, err)
	assert.False(t, mr.Exists(publicationKey(p.ID)))

	before := store.finds
	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, got.Comments, 1)
	assert.Equal(t, before+1, store.finds)

	_, err = repo.SoftDelete(ctx, p.ID)
	require.NoError(t, err)
	got, err = repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, got.Status)

	t.Run("not found is not cached", func(t *testing.T) {
		_, err := repo.FindByID(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.False(t, mr.Exists(publicationKey("missing")))
	})

	t.Run("redis outage falls back to the store", func(t *testing.T) {
		mr.Close()
		got, err := repo.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, p.ID, got.ID)
	})
}
