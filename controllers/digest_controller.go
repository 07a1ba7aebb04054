package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/al-ameen36/vcon-bubble-maps/models"
	"github.com/al-ameen36/vcon-bubble-maps/services"
)

type DigestController struct {
	digests services.DigestReader
	logger  *zap.Logger
}

func NewDigestController(digests services.DigestReader, logger *zap.Logger) *DigestController {
	return &DigestController{digests: digests, logger: logger}
}

func (dc *DigestController) Latest(c *gin.Context) {
	digests, err := dc.digests.Latest(c.Request.Context())
	if err != nil {
		dc.logger.Error("reading digests failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch digests"})
		return
	}
	if digests == nil {
		digests = []models.CategoryDigest{}
	}
	c.JSON(http.StatusOK, gin.H{"digests": digests})
}
