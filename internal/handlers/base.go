package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"petitionsite/internal/services"
	"petitionsite/internal/utils"

	"github.com/gin-gonic/gin"
)

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	// The tier-count rule is an invariant but was always reported as a bad
	// request.
	if errors.Is(err, services.ErrTierCount) {
		return http.StatusBadRequest
	}
	switch services.KindOf(err) {
	case services.KindValidation:
		return http.StatusBadRequest
	case services.KindUnauthorized:
		return http.StatusUnauthorized
	case services.KindForbidden, services.KindInvariant:
		return http.StatusForbidden
	case services.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// RenderError writes err as a JSON error body. Store failures are logged and
// never echoed to the client.
func RenderError(c *gin.Context, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		log.Printf("[http] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.AbortWithStatusJSON(code, gin.H{"error": "Internal Server Error"})
		return
	}
	c.AbortWithStatusJSON(code, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Bad Request. " + msg})
}

// idParam parses a positive integer path parameter, writing 400 if invalid.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, ok := utils.ParseID(c.Param(name))
	if !ok {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

// optionalInt parses an optional integer query parameter.
func optionalInt(c *gin.Context, name string) (*int, bool) {
	raw, present := c.GetQuery(name)
	if !present {
		return nil, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, "invalid "+name)
		return nil, false
	}
	return &v, true
}

func optionalID(c *gin.Context, name string) (*uint, bool) {
	raw, present := c.GetQuery(name)
	if !present {
		return nil, true
	}
	id, ok := utils.ParseID(raw)
	if !ok {
		badRequest(c, "invalid "+name)
		return nil, false
	}
	return &id, true
}
