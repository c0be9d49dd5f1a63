package repository

import (
	"context"
	"encoding/json"
	"time"

	"scholarship-engine/internal/common/logger"
	"scholarship-engine/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	studentCachePrefix     = "student:profile:"
	scholarshipCachePrefix = "scholarship:"
)

type StudentReader interface {
	GetStudent(ctx context.Context, id string) (*models.StudentProfile, error)
}

type ScholarshipReader interface {
	GetScholarship(ctx context.Context, id string) (*models.Scholarship, error)
}

// CachedStudents is a read-through Redis cache in front of a StudentReader.
// Cache failures are logged and fall through to the source.
type CachedStudents struct {
	source StudentReader
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedStudents(source StudentReader, rdb *redis.Client, ttl time.Duration, log logger.Logger) *CachedStudents {
	return &CachedStudents{source: source, redis: rdb, ttl: ttl, logger: log}
}

func (c *CachedStudents) GetStudent(ctx context.Context, id string) (*models.StudentProfile, error) {
	key := studentCachePrefix + id
	var student models.StudentProfile
	if readCache(ctx, c.redis, key, &student, c.logger) {
		return &student, nil
	}

	out, err := c.source.GetStudent(ctx, id)
	if err != nil {
		return nil, err
	}
	writeCache(ctx, c.redis, key, out, c.ttl, c.logger)
	return out, nil
}

// Invalidate drops a cached profile after an upstream change.
func (c *CachedStudents) Invalidate(ctx context.Context, id string) error {
	return c.redis.Del(ctx, studentCachePrefix+id).Err()
}

type CachedScholarships struct {
	source ScholarshipReader
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedScholarships(source ScholarshipReader, rdb *redis.Client, ttl time.Duration, log logger.Logger) *CachedScholarships {
	return &CachedScholarships{source: source, redis: rdb, ttl: ttl, logger: log}
}

func (c *CachedScholarships) GetScholarship(ctx context.Context, id string) (*models.Scholarship, error) {
	key := scholarshipCachePrefix + id
	var sch models.Scholarship
	if readCache(ctx, c.redis, key, &sch, c.logger) {
		return &sch, nil
	}

	out, err := c.source.GetScholarship(ctx, id)
	if err != nil {
		return nil, err
	}
	writeCache(ctx, c.redis, key, out, c.ttl, c.logger)
	return out, nil
}

func (c *CachedScholarships) Invalidate(ctx context.Context, id string) error {
	return c.redis.Del(ctx, scholarshipCachePrefix+id).Err()
}

func readCache(ctx context.Context, rdb *redis.Client, key string, dst interface{}, log logger.Logger) bool {
	val, err := rdb.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			log.Warn("cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
		}
		return false
	}
	if err := json.Unmarshal([]byte(val), dst); err != nil {
		log.Warn("cache entry unreadable", map[string]interface{}{"key": key, "error": err.Error()})
		return false
	}
	log.Debug("cache hit", map[string]interface{}{"key": key})
	return true
}

func writeCache(ctx context.Context, rdb *redis.Client, key string, v interface{}, ttl time.Duration, log logger.Logger) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		log.Warn("cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}
