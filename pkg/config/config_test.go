package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, DefaultSemester, cfg.Courses.DefaultSemester)
	assert.False(t, cfg.Courses.PurgeWaitingListOnDelete)
	assert.False(t, cfg.Courses.CacheEnabled)
	assert.Equal(t, 5*time.Minute, cfg.Courses.CacheTTL)
	assert.True(t, cfg.Exports.RosterEnabled)
	assert.Nil(t, cfg.CORS.AllowedOrigins)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("COURSES_DEFAULT_SEMESTER", "  ")
	v.Set("COURSE_CACHE_TTL", "not-a-duration")
	v.Set("ENABLE_COURSE_CACHE", true)
	v.Set("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg := fromViper(v)
	assert.Equal(t, DefaultSemester, cfg.Courses.DefaultSemester)
	assert.Equal(t, 5*time.Minute, cfg.Courses.CacheTTL)
	assert.True(t, cfg.Courses.CacheEnabled)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, 2*time.Second, parseDuration("2s", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("soon", time.Minute))
}

func TestCacheBackend(t *testing.T) {
	assert.Equal(t, CacheBackendRedis, cacheBackend(""))
	assert.Equal(t, CacheBackendMemory, cacheBackend(" Memory "))
	assert.Equal(t, CacheBackendRedis, cacheBackend("memcached"))

	v := viper.New()
	setDefaults(v)
	assert.Equal(t, CacheBackendRedis, fromViper(v).Courses.CacheBackend)
}
