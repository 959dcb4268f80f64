package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"bidhouse/auction"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{auction.ErrValidation, http.StatusBadRequest},
		{auction.ErrOutbidTooLate, http.StatusBadRequest},
		{auction.ErrForbidden, http.StatusForbidden},
		{auction.ErrInactive, http.StatusForbidden},
		{auction.ErrNotFound, http.StatusNotFound},
		{auction.ErrStaleDescription, http.StatusConflict},
		{auction.ErrConcurrentUpdate, http.StatusConflict},
		{auction.ErrLockTimeout, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			wrapped := fmt.Errorf("[Arbitrator.PlaceBid] auction=42, err=%w", tt.err)
			assert.Equal(t, tt.want, statusOf(wrapped))
		})
	}
}

func TestPublicMessage(t *testing.T) {
	err := fmt.Errorf("[Arbitrator.PlaceBid] auction=42, err=%w", fmt.Errorf("%w: current=5.00, bid=5.00", auction.ErrOutbidTooLate))
	assert.Equal(t, "bid does not exceed current price: current=5.00, bid=5.00", publicMessage(err))

	inactive := fmt.Errorf("[Arbitrator.GetAuction] auction=42, err=%w", auction.ErrInactive)
	assert.Equal(t, "forbidden: auction is not active", publicMessage(inactive))

	internal := fmt.Errorf("[db] Fail to connect, password=hunter2, err=%w", errors.New("dial tcp"))
	assert.Equal(t, "Internal Server Error", publicMessage(internal))
}

func TestWriteError(t *testing.T) {
	env := setupTest(t)

	t.Run("lock timeout asks client to retry", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/bids", nil)

		env.impl.writeError(c, fmt.Errorf("[Arbitrator.PlaceBid] auction=42, err=%w", auction.ErrLockTimeout))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, retryAfterSeconds, w.Header().Get("Retry-After"))
		assert.Equal(t, "lock wait timeout", decodeMessage(t, w))
	})

	t.Run("internal error hides details", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/auctions", nil)

		env.impl.writeError(c, errors.New("connection refused"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Empty(t, w.Header().Get("Retry-After"))
		assert.Equal(t, "Internal Server Error", decodeMessage(t, w))
	})
}
