package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// createHandler binds I and answers 201 with whatever create returns.
func createHandler[I any, O any](name string, create func(context.Context, *I) (*O, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input I
		if !bindJSON(c, &input) {
			return
		}
		result, err := create(c.Request.Context(), &input)
		if err != nil {
			respondError(c, name, err)
			return
		}
		c.JSON(http.StatusCreated, result)
	}
}

func updateHandler[I any, O any](name string, update func(context.Context, int, *I) (*O, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var input I
		if !bindJSON(c, &input) {
			return
		}
		result, err := update(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, name, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// byIdHandler serves gets, deletes and the approve/reject style actions.
func byIdHandler[O any](name string, fn func(context.Context, int) (*O, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		result, err := fn(c.Request.Context(), id)
		if err != nil {
			respondError(c, name, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
