package utils

import (
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
	"golang.org/x/exp/slices"
)

// RoleMiddleware builds a middleware that only lets the listed roles through.
func RoleMiddleware(roles ...string) iris.Handler {
	return func(ctx iris.Context) {
		claims := jwt.Get(ctx).(*AccessToken)
		if !slices.Contains(roles, claims.Role) {
			ctx.StatusCode(iris.StatusForbidden)
			ctx.JSON(iris.Map{"error": "forbidden", "message": "insufficient role"})
			return
		}
		ctx.Values().Set("userID", claims.ID)
		ctx.Values().Set("role", claims.Role)
		ctx.Next()
	}
}

// AdminOnlyMiddleware ensures the requester has the admin role
func AdminOnlyMiddleware(ctx iris.Context) {
	claims := jwt.Get(ctx).(*AccessToken)
	if claims.Role != "admin" {
		ctx.StatusCode(iris.StatusForbidden)
		ctx.JSON(iris.Map{"error": "forbidden", "message": "admin access required"})
		return
	}
	ctx.Values().Set("userID", claims.ID)
	ctx.Next()
}
