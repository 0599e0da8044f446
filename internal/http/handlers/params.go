package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/hermes-backend/internal/platform/apierr"
)

func uuidParam(c *gin.Context, name, code string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, apierr.BadRequest(code, "%s must be a UUID", name)
	}
	return id, nil
}

func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apierr.BadRequest("invalid_request", "%s", fmt.Sprint(err))
	}
	return nil
}
