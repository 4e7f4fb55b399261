package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-registration-api/internal/dto"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
)

func TestMemoryCacheRepositoryRoundTrip(t *testing.T) {
	repo := NewMemoryCacheRepository(time.Minute)
	ctx := context.Background()

	in := []dto.CourseSummary{{ID: 1, Name: "Vefþjónustur", Semester: "20153", StudentCount: 3}}
	require.NoError(t, repo.Set(ctx, "courses:semester:20153", in, 0))

	var out []dto.CourseSummary
	require.NoError(t, repo.Get(ctx, "courses:semester:20153", &out))
	assert.Equal(t, in[0].Name, out[0].Name)
	assert.Equal(t, 3, out[0].StudentCount)

	out[0].Name = "changed"
	var again []dto.CourseSummary
	require.NoError(t, repo.Get(ctx, "courses:semester:20153", &again))
	assert.Equal(t, "Vefþjónustur", again[0].Name)
}

func TestMemoryCacheRepositoryDeleteByPattern(t *testing.T) {
	repo := NewMemoryCacheRepository(time.Minute)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "courses:semester:20153", 1, 0))
	require.NoError(t, repo.Set(ctx, "courses:semester:20161", 2, 0))
	require.NoError(t, repo.Set(ctx, "other:key", 3, 0))

	require.NoError(t, repo.DeleteByPattern(ctx, "courses:*"))

	var v int
	assert.True(t, errors.Is(repo.Get(ctx, "courses:semester:20153", &v), appErrors.ErrCacheMiss))
	assert.True(t, errors.Is(repo.Get(ctx, "courses:semester:20161", &v), appErrors.ErrCacheMiss))
	require.NoError(t, repo.Get(ctx, "other:key", &v))
	assert.Equal(t, 3, v)

	require.NoError(t, repo.Close())
	assert.True(t, errors.Is(repo.Get(ctx, "other:key", &v), appErrors.ErrCacheMiss))
}
