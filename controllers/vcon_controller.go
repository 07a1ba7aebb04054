package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/invopop/jsonschema"
	"go.uber.org/zap"

	"github.com/al-ameen36/vcon-bubble-maps/models"
	"github.com/al-ameen36/vcon-bubble-maps/services"
)

const maxPageSize = 100

type VconRepository interface {
	SaveDocument(ctx context.Context, doc []byte) error
	Document(ctx context.Context, uuid string) (json.RawMessage, error)
	FetchPage(ctx context.Context, cursor string, limit int) (models.VconPage, error)
}

type VconController struct {
	store  VconRepository
	logger *zap.Logger
	schema *jsonschema.Schema
}

func NewVconController(store VconRepository, logger *zap.Logger) *VconController {
	return &VconController{store: store, logger: logger, schema: VconSchema()}
}

// VconSchema describes the accepted vCon document.
func VconSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	return reflector.Reflect(&models.Vcon{})
}

// Ingest stores one vCon document byte for byte. Only the uuid is checked;
// everything else is kept as sent.
func (vc *VconController) Ingest(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil || !json.Valid(body) {
		vc.logger.Debug("invalid vcon body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid JSON"})
		return
	}
	var head struct {
		UUID json.RawMessage `json:"uuid"`
	}
	if err := json.Unmarshal(body, &head); err != nil {
		vc.logger.Debug("vcon body is not an object", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid JSON"})
		return
	}
	var uuid string
	if err := json.Unmarshal(head.UUID, &uuid); err != nil || uuid == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing uuid"})
		return
	}

	if err := vc.store.SaveDocument(c.Request.Context(), body); err != nil {
		if errors.Is(err, services.ErrMissingUUID) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Missing uuid"})
			return
		}
		if errors.Is(err, services.ErrInvalidDocument) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid JSON"})
			return
		}
		vc.logger.Error("saving vcon failed", zap.String("uuid", uuid), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Get returns one stored document as it was ingested.
func (vc *VconController) Get(c *gin.Context) {
	uuid := c.Param("uuid")
	doc, err := vc.store.Document(c.Request.Context(), uuid)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "vcon not found"})
			return
		}
		vc.logger.Error("loading vcon failed", zap.String("uuid", uuid), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch vcon"})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", doc)
}

// List returns one page of stored vCons.
func (vc *VconController) List(c *gin.Context) {
	limit := services.DefaultPageSize
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxPageSize {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100"})
			return
		}
		limit = n
	}

	page, err := vc.store.FetchPage(c.Request.Context(), c.Query("cursor"), limit)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCursor) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cursor"})
			return
		}
		vc.logger.Error("listing vcons failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch vcons"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"records":    page.Records,
		"nextCursor": page.NextCursor,
		"isDone":     page.Exhausted(),
	})
}

func (vc *VconController) Schema(c *gin.Context) {
	c.JSON(http.StatusOK, vc.schema)
}
