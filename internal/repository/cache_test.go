package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "scholarship-engine/internal/common/errors"
	"scholarship-engine/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStudents struct {
	calls   int
	student *models.StudentProfile
	err     error
}

func (s *stubStudents) GetStudent(ctx context.Context, id string) (*models.StudentProfile, error) {
	s.calls++
	return s.student, s.err
}

type stubScholarships struct {
	calls int
	sch   *models.Scholarship
}

func (s *stubScholarships) GetScholarship(ctx context.Context, id string) (*models.Scholarship, error) {
	s.calls++
	return s.sch, nil
}

func TestCachedStudents_ReadThrough(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	source := &stubStudents{student: &models.StudentProfile{ID: "stu-1", GWA: models.Float64(1.5)}}
	cache := NewCachedStudents(source, rdb, time.Minute, newTestLogger(t))
	ctx := context.Background()

	first, err := cache.GetStudent(ctx, "stu-1")
	require.NoError(t, err)
	second, err := cache.GetStudent(ctx, "stu-1")
	require.NoError(t, err)

	assert.Equal(t, 1, source.calls)
	assert.Equal(t, first, second)
	assert.True(t, mr.Exists("student:profile:stu-1"))
	assert.Equal(t, time.Minute, mr.TTL("student:profile:stu-1"))

	require.NoError(t, cache.Invalidate(ctx, "stu-1"))
	_, err = cache.GetStudent(ctx, "stu-1")
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls)
}

func TestCachedStudents_ErrorsAreNotCached(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	source := &stubStudents{err: apperrors.NewStudentNotFoundError("ghost")}
	cache := NewCachedStudents(source, rdb, time.Minute, newTestLogger(t))

	_, err = cache.GetStudent(context.Background(), "ghost")
	assert.True(t, errors.Is(err, apperrors.ErrStudentNotFound))
	assert.False(t, mr.Exists("student:profile:ghost"))
}

func TestCachedStudents_RedisDownFallsThrough(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	mock.ExpectGet("student:profile:stu-1").SetErr(errors.New("connection refused"))

	source := &stubStudents{student: &models.StudentProfile{ID: "stu-1"}}
	cache := NewCachedStudents(source, rdb, time.Minute, newTestLogger(t))

	s, err := cache.GetStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, "stu-1", s.ID)
	assert.Equal(t, 1, source.calls)
}

func TestCachedScholarships_ReadThrough(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	source := &stubScholarships{sch: &models.Scholarship{
		ID:       "sch-1",
		Name:     "Merit",
		Criteria: models.EligibilityCriteria{MaxGWA: models.Float64(2.0)},
	}}
	cache := NewCachedScholarships(source, rdb, time.Minute, newTestLogger(t))
	ctx := context.Background()

	_, err = cache.GetScholarship(ctx, "sch-1")
	require.NoError(t, err)
	got, err := cache.GetScholarship(ctx, "sch-1")
	require.NoError(t, err)

	assert.Equal(t, 1, source.calls)
	require.NotNil(t, got.Criteria.MaxGWA)
	assert.Equal(t, 2.0, *got.Criteria.MaxGWA)
}
