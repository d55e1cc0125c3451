package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"photo-architect/internal/i18n"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Recovery 返回一个 panic 恢复中间件
func Recovery() gin.HandlerFunc {
	return RecoveryWithWriter(nil)
}

// RecoveryWithWriter 返回一个带自定义回调的 panic 恢复中间件。响应消息使用
// 会话语言（handler 设置的 "locale"），否则按 Accept-Language 选择。
func RecoveryWithWriter(writer gin.RecoveryFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				stack := debug.Stack()
				log.WithFields(log.Fields{
					"error":      err,
					"stack":      string(stack),
					"path":       c.Request.URL.Path,
					"method":     c.Request.Method,
					"client_ip":  c.ClientIP(),
					"user_agent": c.Request.UserAgent(),
					"request_id": c.GetString("request_id"),
					"timestamp":  time.Now().Format(time.RFC3339),
				}).Error("Panic recovered")

				if writer != nil {
					writer(c, err)
				}

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": gin.H{
						"message": i18n.T(RequestLocale(c), i18n.MsgCrash),
						"type":    "internal_error",
						"code":    "panic_recovered",
					},
				})
			}
		}()

		c.Next()
	}
}

// RequestLocale returns the locale stored on the context, falling back to the
// Accept-Language header.
func RequestLocale(c *gin.Context) i18n.Locale {
	if v, ok := c.Get("locale"); ok {
		if l, ok := v.(i18n.Locale); ok && l != "" {
			return l
		}
	}
	return i18n.Match(c.GetHeader("Accept-Language"))
}

// SafeGo 安全地启动 goroutine，带 panic 恢复
func SafeGo(fn func()) {
	go func() {
		defer func() {
			if err := recover(); err != nil {
				log.WithFields(log.Fields{
					"error": err,
					"stack": string(debug.Stack()),
				}).Error("Goroutine panic recovered")
			}
		}()
		fn()
	}()
}

// SafeCallWithValue 安全地调用返回值的函数，捕获 panic 并转换为 error
func SafeCallWithValue[T any](fn func() (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{
				"error": r,
				"stack": string(debug.Stack()),
			}).Error("Panic in SafeCallWithValue")

			var zero T
			result = zero
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	return fn()
}
