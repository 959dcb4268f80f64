package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"bidhouse/api/openapi"
	"bidhouse/auction"
)

// retryAfterSeconds 等鎖逾時時建議客戶端重試的秒數
const retryAfterSeconds = "1"

// publicErrors 可以回傳給客戶端的錯誤，越具體的越前面
var publicErrors = []error{
	auction.ErrInactive,
	auction.ErrValidation,
	auction.ErrForbidden,
	auction.ErrStaleDescription,
	auction.ErrOutbidTooLate,
	auction.ErrNotFound,
	auction.ErrConcurrentUpdate,
	auction.ErrLockTimeout,
}

// statusOf 將領域錯誤對應到 HTTP 狀態碼
func statusOf(err error) int {
	switch {
	case errors.Is(err, auction.ErrValidation), errors.Is(err, auction.ErrOutbidTooLate):
		return http.StatusBadRequest
	case errors.Is(err, auction.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, auction.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, auction.ErrStaleDescription), errors.Is(err, auction.ErrConcurrentUpdate):
		return http.StatusConflict
	case errors.Is(err, auction.ErrLockTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage 去掉內部的 op 前綴，只留下錯誤本身與其說明
func publicMessage(err error) string {
	msg := err.Error()
	for _, target := range publicErrors {
		if !errors.Is(err, target) {
			continue
		}
		if i := strings.Index(msg, target.Error()); i >= 0 {
			return msg[i:]
		}
		return target.Error()
	}
	return http.StatusText(http.StatusInternalServerError)
}

func (impl *ServerImpl) writeError(c *gin.Context, err error) {
	status := statusOf(err)
	switch status {
	case http.StatusInternalServerError:
		impl.logger.Error("Unhandled error", slog.String("path", c.FullPath()), slog.Any("error", err))
	case http.StatusServiceUnavailable:
		c.Header("Retry-After", retryAfterSeconds)
	}
	c.AbortWithStatusJSON(status, openapi.Error{Message: publicMessage(err)})
}

// errorResponder 將 handler 返回的錯誤寫成回應，之後 strict handler 看到的是空回應
func (impl *ServerImpl) errorResponder(f openapi.StrictHandlerFunc, operationID string) openapi.StrictHandlerFunc {
	return func(c *gin.Context, request interface{}) (interface{}, error) {
		response, err := f(c, request)
		if err != nil {
			impl.writeError(c, fmt.Errorf("[%s] %w", operationID, err))
			return nil, nil
		}
		return response, nil
	}
}

// handleErrors 處理沒有寫出回應的錯誤，例如 strict handler 解析內容失敗
func (impl *ServerImpl) handleErrors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		var reach *ReachLimitError
		switch {
		case errors.As(err, &reach):
			c.JSON(http.StatusRequestEntityTooLarge, openapi.Error{Message: reach.Error()})
		case c.Writer.Status() == http.StatusBadRequest:
			c.JSON(http.StatusBadRequest, openapi.Error{Message: "malformed request body"})
		default:
			impl.writeError(c, err)
		}
	}
}

// paramErrorHandler 路徑或查詢參數格式錯誤
func paramErrorHandler(c *gin.Context, err error, statusCode int) {
	c.AbortWithStatusJSON(statusCode, openapi.Error{Message: err.Error()})
}

func abortBadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, openapi.Error{Message: message})
}
