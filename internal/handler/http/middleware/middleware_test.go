package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func createdHandler(calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"ev-1"}`))
	})
}

func postWithKey(key string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/events", nil)
	if key != "" {
		req.Header.Set(IdempotencyHeader, key)
	}
	return req
}

func TestIdempotency_FirstRequestIsStored(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	cacheKey := IdempotencyCacheKey("/api/v1/attendance/events", "k-1")
	payload, err := json.Marshal(storedResponse{Status: http.StatusCreated, ContentType: "application/json", Body: `{"id":"ev-1"}`})
	require.NoError(t, err)

	mock.ExpectGet(cacheKey).RedisNil()
	mock.ExpectSetNX(cacheKey+":lock", "1", idempotencyLockTTL).SetVal(true)
	mock.ExpectSet(cacheKey, string(payload), time.Hour).SetVal("OK")
	mock.ExpectDel(cacheKey + ":lock").SetVal(1)

	calls := 0
	rec := httptest.NewRecorder()
	Idempotency(rdb, time.Hour, nil)(createdHandler(&calls)).ServeHTTP(rec, postWithKey("k-1"))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, `{"id":"ev-1"}`, rec.Body.String())
	assert.Equal(t, 1, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotency_ReplaysStoredResponse(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	cacheKey := IdempotencyCacheKey("/api/v1/attendance/events", "k-1")
	payload, err := json.Marshal(storedResponse{Status: http.StatusCreated, ContentType: "application/json", Body: `{"id":"ev-1"}`})
	require.NoError(t, err)
	mock.ExpectGet(cacheKey).SetVal(string(payload))

	calls := 0
	rec := httptest.NewRecorder()
	Idempotency(rdb, time.Hour, nil)(createdHandler(&calls)).ServeHTTP(rec, postWithKey("k-1"))

	assert.Equal(t, 0, calls)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "true", rec.Header().Get(ReplayedHeader))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, `{"id":"ev-1"}`, rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotency_ConcurrentDuplicateIsRejected(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	cacheKey := IdempotencyCacheKey("/api/v1/attendance/events", "k-1")
	mock.ExpectGet(cacheKey).RedisNil()
	mock.ExpectSetNX(cacheKey+":lock", "1", idempotencyLockTTL).SetVal(false)

	calls := 0
	rec := httptest.NewRecorder()
	Idempotency(rdb, time.Hour, nil)(createdHandler(&calls)).ServeHTTP(rec, postWithKey("k-1"))

	assert.Equal(t, 0, calls)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "PROCESSING")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotency_ServerErrorsAreNotStored(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	cacheKey := IdempotencyCacheKey("/api/v1/attendance/events", "k-1")
	mock.ExpectGet(cacheKey).RedisNil()
	mock.ExpectSetNX(cacheKey+":lock", "1", idempotencyLockTTL).SetVal(true)
	mock.ExpectDel(cacheKey + ":lock").SetVal(1)

	failing := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	rec := httptest.NewRecorder()
	Idempotency(rdb, time.Hour, nil)(failing).ServeHTTP(rec, postWithKey("k-1"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotency_RedisDownLetsRequestThrough(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	mock.ExpectGet(IdempotencyCacheKey("/api/v1/attendance/events", "k-1")).SetErr(errors.New("connection refused"))

	calls := 0
	rec := httptest.NewRecorder()
	Idempotency(rdb, time.Hour, nil)(createdHandler(&calls)).ServeHTTP(rec, postWithKey("k-1"))

	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotency_WithoutKeySkipsRedis(t *testing.T) {
	rdb, mock := redismock.NewClientMock()

	calls := 0
	rec := httptest.NewRecorder()
	Idempotency(rdb, time.Hour, nil)(createdHandler(&calls)).ServeHTTP(rec, postWithKey(""))

	assert.Equal(t, 1, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimitByIP(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	handler := RateLimitByIP(rate.Limit(0.001), 2)(ok)

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/shifts/s-1", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, send("10.0.0.1:5000"))
	assert.Equal(t, http.StatusNoContent, send("10.0.0.1:5001"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:5002"))
	assert.Equal(t, http.StatusNoContent, send("10.0.0.2:5000"))
}

func TestClientRateLimiter_EvictsIdleClients(t *testing.T) {
	start := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	now := start
	limiter := NewClientRateLimiter(rate.Limit(1), 1)
	limiter.now = func() time.Time { return now }

	limiter.GetLimiter("10.0.0.1")
	limiter.GetLimiter("10.0.0.2")
	assert.Equal(t, 2, limiter.Len())

	now = start.Add(5 * time.Minute)
	first := limiter.GetLimiter("10.0.0.1")

	now = start.Add(11 * time.Minute)
	limiter.GetLimiter("10.0.0.3")
	assert.Equal(t, 2, limiter.Len())
	assert.Same(t, first, limiter.GetLimiter("10.0.0.1"))
}
