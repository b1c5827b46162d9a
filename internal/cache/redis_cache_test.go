package cache_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/arnavkapoor/stitchkart-commerce/internal/cache"
	"github.com/arnavkapoor/stitchkart-commerce/internal/config"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testData struct {
	Name  string `json:"name"`
	Stock int    `json:"stock"`
}

func setup(t *testing.T) (cache.Cache, redismock.ClientMock) {
	t.Helper()

	client, mock := redismock.NewClientMock()
	cfg := &config.CacheConfig{
		DefaultTTL: 10 * time.Minute,
	}
	redisCache := cache.NewRedisCache(client, cfg)

	return redisCache, mock
}

func TestGet(t *testing.T) {
	ctx := t.Context()
	testKey := cache.Key(cache.ProductKeyPrefix, "abc")
	testValue := testData{Name: "Linen Shirt", Stock: 5}
	jsonData, err := json.Marshal(testValue)
	require.NoError(t, err)

	t.Run("Success - Key Found", func(t *testing.T) {
		redisCache, mock := setup(t)

		var result testData

		mock.ExpectGet(testKey).SetVal(string(jsonData))

		found, err := redisCache.Get(ctx, testKey, &result)

		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, testValue, result)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success - Key Missing Is Not An Error", func(t *testing.T) {
		redisCache, mock := setup(t)

		var result testData

		mock.ExpectGet(testKey).RedisNil()

		found, err := redisCache.Get(ctx, testKey, &result)

		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("Failure - Redis Error", func(t *testing.T) {
		redisCache, mock := setup(t)

		var result testData

		mock.ExpectGet(testKey).SetErr(errors.New("connection refused"))

		found, err := redisCache.Get(ctx, testKey, &result)

		assert.False(t, found)
		assert.Error(t, err)
	})

	t.Run("Failure - Corrupt Payload", func(t *testing.T) {
		redisCache, mock := setup(t)

		var result testData

		mock.ExpectGet(testKey).SetVal("{not json")

		found, err := redisCache.Get(ctx, testKey, &result)

		assert.False(t, found)
		assert.Error(t, err)
	})
}

func TestSet(t *testing.T) {
	ctx := t.Context()
	testKey := cache.Key(cache.ProductKeyPrefix, "abc")
	testValue := testData{Name: "Linen Shirt", Stock: 5}
	jsonData, err := json.Marshal(testValue)
	require.NoError(t, err)

	t.Run("Success - Explicit TTL", func(t *testing.T) {
		redisCache, mock := setup(t)

		mock.ExpectSet(testKey, jsonData, time.Minute).SetVal("OK")

		err := redisCache.Set(ctx, testKey, testValue, time.Minute)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success - Zero TTL Falls Back To Default", func(t *testing.T) {
		redisCache, mock := setup(t)

		mock.ExpectSet(testKey, jsonData, 10*time.Minute).SetVal("OK")

		err := redisCache.Set(ctx, testKey, testValue, 0)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - Redis Error", func(t *testing.T) {
		redisCache, mock := setup(t)

		mock.ExpectSet(testKey, jsonData, time.Minute).SetErr(errors.New("connection refused"))

		err := redisCache.Set(ctx, testKey, testValue, time.Minute)

		assert.Error(t, err)
	})
}

func TestDelete(t *testing.T) {
	ctx := t.Context()
	testKey := cache.Key(cache.ProductKeyPrefix, "abc")

	t.Run("Success", func(t *testing.T) {
		redisCache, mock := setup(t)

		mock.ExpectDel(testKey).SetVal(1)

		err := redisCache.Delete(ctx, testKey)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - Redis Error", func(t *testing.T) {
		redisCache, mock := setup(t)

		mock.ExpectDel(testKey).SetErr(errors.New("connection refused"))

		err := redisCache.Delete(ctx, testKey)

		assert.Error(t, err)
	})
}
