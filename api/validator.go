package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers/legacy"
	"github.com/gin-gonic/gin"

	"bidhouse/api/openapi"
)

// requestValidator 依 openapi.yaml 檢查請求，作為產生的路由上的中介層
// 先解析 bearer token，再由各操作的 security 決定是否必須登入，最後檢查參數與內容
func (impl *ServerImpl) requestValidator() (openapi.MiddlewareFunc, error) {
	const op = "requestValidator"
	swagger, err := openapi.GetSwagger()
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to load openapi document, err=%w", op, err)
	}
	// 只比對路徑，不比對 servers 中的主機
	swagger.Servers = nil
	router, err := legacy.NewRouter(swagger)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to create openapi router, err=%w", op, err)
	}
	logger := impl.logger.With(slog.String("caller", "RequestValidator"))

	return func(c *gin.Context) {
		route, pathParams, err := router.FindRoute(c.Request)
		if err != nil {
			// 產生的路由都在文件中，找不到代表文件與程式不一致
			logger.Error("Route is not in openapi document", slog.String("path", c.Request.URL.Path), slog.Any("error", err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, openapi.Error{Message: http.StatusText(http.StatusInternalServerError)})
			return
		}

		// 帶了 token 就必須正確，即使操作允許匿名
		authenticated := false
		if raw, err := bearerToken(c); err == nil {
			if err := impl.authenticate(c, raw); err != nil {
				logger.Debug("Reject access token", slog.Any("error", err))
				abortUnauthorized(c)
				return
			}
			authenticated = true
		}

		input := &openapi3filter.RequestValidationInput{
			Request:    c.Request,
			PathParams: pathParams,
			Route:      route,
			Options: &openapi3filter.Options{
				AuthenticationFunc: func(context.Context, *openapi3filter.AuthenticationInput) error {
					if !authenticated {
						return ErrMissingToken
					}
					return nil
				},
			},
		}
		if err := openapi3filter.ValidateRequest(c.Request.Context(), input); err != nil {
			abortInvalidRequest(c, err)
		}
	}, nil
}

// abortInvalidRequest 將驗證錯誤對應到狀態碼
func abortInvalidRequest(c *gin.Context, err error) {
	var securityErr *openapi3filter.SecurityRequirementsError
	if errors.As(err, &securityErr) {
		abortUnauthorized(c)
		return
	}
	var reach *ReachLimitError
	if errors.As(err, &reach) {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, openapi.Error{Message: reach.Error()})
		return
	}
	var requestErr *openapi3filter.RequestError
	if errors.As(err, &requestErr) {
		abortBadRequest(c, requestErr.Error())
		return
	}
	abortBadRequest(c, err.Error())
}
