package utils

import (
	"github.com/kataras/iris/v12"
)

func CreateNotFound(ctx iris.Context) {
	ctx.StatusCode(iris.StatusNotFound)
	ctx.JSON(iris.Map{"error": "not_found", "message": "Resource not found"})
}

func CreateInternalServerError(ctx iris.Context) {
	ctx.StatusCode(iris.StatusInternalServerError)
	ctx.JSON(iris.Map{"error": "internal", "message": "An unexpected error occurred"})
}

func CreateForbidden(ctx iris.Context, message string) {
	ctx.StatusCode(iris.StatusForbidden)
	ctx.JSON(iris.Map{"error": "forbidden", "message": message})
}

func JSONError(ctx iris.Context, status int, code, message string) {
	ctx.StatusCode(status)
	ctx.JSON(iris.Map{"error": code, "message": message})
}

type PageMeta struct {
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
}

func JSONPage(ctx iris.Context, data interface{}, page, perPage int, total int64) {
	ctx.JSON(iris.Map{
		"data": data,
		"meta": PageMeta{Page: page, PerPage: perPage, Total: total},
	})
}
