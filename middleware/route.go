package middleware

import (
	midsec "PPClient/middleware/security"

	"github.com/gin-gonic/gin"
)

// RouteOpt 路由选项
type RouteOpt struct {
	IsAuth bool
	Token  string
}

func chain(handler gin.HandlerFunc, opt RouteOpt) []gin.HandlerFunc {
	if opt.IsAuth {
		return []gin.HandlerFunc{midsec.Middleware(midsec.DefaultOptions(opt.Token)), handler}
	}
	return []gin.HandlerFunc{handler}
}

// 封装 POST
func POST(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	r.POST(path, chain(handler, opt)...)
}

// 封装 GET
func GET(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	r.GET(path, chain(handler, opt)...)
}

// 封装 PUT
func PUT(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	r.PUT(path, chain(handler, opt)...)
}
