package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the failure envelope for every endpoint.
type ErrorBody struct {
	Error string `json:"error"`
}

// Ack confirms an action that returns no entity (delete, webhook receipt).
type Ack struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// OK sends 200 with the body as-is.
func OK(c *gin.Context, body interface{}) {
	c.JSON(http.StatusOK, body)
}

// Created sends 201 with the body as-is.
func Created(c *gin.Context, body interface{}) {
	c.JSON(http.StatusCreated, body)
}

// Acked sends 200 with {success:true, message}.
func Acked(c *gin.Context, message string) {
	c.JSON(http.StatusOK, Ack{Success: true, Message: message})
}

// BadRequest sends 400 with {error}.
func BadRequest(c *gin.Context, err string) {
	c.JSON(http.StatusBadRequest, ErrorBody{Error: err})
}

// NotFound sends 404 with {error}.
func NotFound(c *gin.Context, err string) {
	c.JSON(http.StatusNotFound, ErrorBody{Error: err})
}

// PayloadTooLarge sends 413 with {error}.
func PayloadTooLarge(c *gin.Context, err string) {
	c.JSON(http.StatusRequestEntityTooLarge, ErrorBody{Error: err})
}

// Internal sends 500 with {error}.
func Internal(c *gin.Context, err string) {
	c.JSON(http.StatusInternalServerError, ErrorBody{Error: err})
}
