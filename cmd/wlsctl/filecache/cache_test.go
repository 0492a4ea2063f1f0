package filecache

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epam/wlsctl/cmd/wlsctl/config"
)

func withCacheFile(t *testing.T) string {
	prev := config.CacheFile
	config.CacheFile = filepath.Join(t.TempDir(), ".wlsctl-cache.yaml")
	t.Cleanup(func() { config.CacheFile = prev })
	return config.CacheFile
}

func TestReadCacheMissing(t *testing.T) {
	withCacheFile(t)
	file, cache, err := ReadCache(os.O_RDONLY)
	assert.NoError(t, err)
	assert.Nil(t, file)
	assert.Nil(t, cache)
}

func TestReadCacheNotSet(t *testing.T) {
	prev := config.CacheFile
	config.CacheFile = ""
	defer func() { config.CacheFile = prev }()
	_, _, err := ReadCache(os.O_RDONLY)
	assert.Error(t, err)
}

func TestUpdateRoundTrip(t *testing.T) {
	path := withCacheFile(t)
	host := "714cbf9b-f8df-4362-8aea-b7321ba33a2e"
	require.NoError(t, Update(func(c *FileCache) { c.Metrics.Host = &host }))
	require.NoError(t, Update(func(c *FileCache) { c.Metrics.Disabled = true }))

	file, cache, err := ReadCache(os.O_RDONLY)
	require.NoError(t, err)
	require.NotNil(t, cache)
	file.Close()
	assert.Equal(t, 1, cache.Version)
	assert.True(t, cache.Metrics.Disabled)
	require.NotNil(t, cache.Metrics.Host)
	assert.Equal(t, host, *cache.Metrics.Host)

	require.NoError(t, Update(func(c *FileCache) { c.Metrics.Host = nil }))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), host)
}

func TestRememberDeployment(t *testing.T) {
	withCacheFile(t)
	for i := 0; i < maxDeployments+5; i++ {
		require.NoError(t, RememberDeployment(Deployment{Url: "t3://admin:7001", Application: fmt.Sprintf("app%d", i), Id: "x"}))
	}
	require.NoError(t, RememberDeployment(Deployment{Url: "t3://admin:7001", Application: "app24", Id: "latest"}))

	file, cache, err := ReadCache(os.O_RDONLY)
	require.NoError(t, err)
	file.Close()
	require.Len(t, cache.Deployments, maxDeployments)
	assert.Equal(t, "app5", cache.Deployments[0].Application)
	last := cache.Deployments[len(cache.Deployments)-1]
	assert.Equal(t, "app24", last.Application)
	assert.Equal(t, "latest", last.Id)
}
