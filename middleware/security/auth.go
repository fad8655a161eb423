package security

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"PPClient/global"
	"PPClient/tools/errs"

	"github.com/gin-gonic/gin"
)

// PPCtxAuthKey 校验通过后令牌写入 gin.Context 的 key
const PPCtxAuthKey = "authorization"

type Options struct {
	// 读取哪个请求头
	HeaderToken               string // 默认 "authorization"
	EnableAuthorizationBearer bool   // 默认 true

	// Expected 期望的令牌，为空时不校验
	Expected string
}

func DefaultOptions(expected string) *Options {
	return &Options{
		HeaderToken:               PPCtxAuthKey,
		EnableAuthorizationBearer: true,
		Expected:                  expected,
	}
}

// TokenFrom 取请求里的令牌：先读 HeaderToken，再兼容 Authorization: Bearer xxx
func TokenFrom(c *gin.Context, opts *Options) string {
	token := strings.TrimSpace(c.GetHeader(opts.HeaderToken))
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = ""
	}
	if token == "" && opts.EnableAuthorizationBearer {
		if authz := strings.TrimSpace(c.GetHeader("Authorization")); authz != "" {
			if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				token = strings.TrimSpace(authz[len("bearer "):])
			}
		}
	}
	return token
}

func Middleware(opts *Options) gin.HandlerFunc {
	if opts == nil {
		opts = DefaultOptions("")
	}
	return func(c *gin.Context) {
		if opts.Expected == "" {
			c.Next()
			return
		}
		token := TokenFrom(c, opts)
		if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(opts.Expected)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, global.Fail(errs.ErrInvalidToken.WrapMsg("control token mismatch")))
			return
		}
		c.Set(PPCtxAuthKey, token)
		c.Next()
	}
}
