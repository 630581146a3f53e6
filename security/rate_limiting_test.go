package security

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"album-rotation/utils"

	"github.com/go-redis/redismock/v9"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const remoteAddr = "203.0.113.7:51234"

func newEvent(userAgent string) *core.RequestEvent {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/queue/submit", nil)
	req.RemoteAddr = remoteAddr
	req.Header.Set("User-Agent", userAgent)

	e := &core.RequestEvent{}
	e.Request = req
	e.Response = httptest.NewRecorder()
	return e
}

func rateKey() string {
	return "ratelimit:submit:" + utils.ContributorID("", remoteAddr)
}

func apiStatus(t *testing.T, err error) int {
	t.Helper()
	var apiErr *router.ApiError
	require.ErrorAs(t, err, &apiErr)
	return apiErr.Status
}

func TestSubmissionGuard_BlocksBots(t *testing.T) {
	g := NewSubmissionGuard(nil, 0, time.Hour)

	for _, ua := range []string{"Googlebot/2.1", "Mozilla/5.0 (compatible; Crawler)", "my-scraper"} {
		assert.Equal(t, http.StatusForbidden, apiStatus(t, g.Check(newEvent(ua))), ua)
	}
}

func TestSubmissionGuard_NoRedis(t *testing.T) {
	g := NewSubmissionGuard(nil, 5, time.Hour)

	assert.NoError(t, g.Check(newEvent("Mozilla/5.0")))
}

func TestSubmissionGuard_FirstRequestSetsWindow(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectIncr(rateKey()).SetVal(1)
	mock.ExpectExpire(rateKey(), time.Hour).SetVal(true)

	g := NewSubmissionGuard(db, 3, time.Hour)

	assert.NoError(t, g.Check(newEvent("Mozilla/5.0")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionGuard_UnderLimit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectIncr(rateKey()).SetVal(3)

	g := NewSubmissionGuard(db, 3, time.Hour)

	assert.NoError(t, g.Check(newEvent("Mozilla/5.0")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionGuard_OverLimit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectIncr(rateKey()).SetVal(4)

	g := NewSubmissionGuard(db, 3, time.Hour)

	assert.Equal(t, http.StatusTooManyRequests, apiStatus(t, g.Check(newEvent("Mozilla/5.0"))))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionGuard_RedisErrorFailsOpen(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectIncr(rateKey()).SetErr(errors.New("connection refused"))

	g := NewSubmissionGuard(db, 3, time.Hour)

	assert.NoError(t, g.Check(newEvent("Mozilla/5.0")))
	assert.NoError(t, mock.ExpectationsWereMet())
}
