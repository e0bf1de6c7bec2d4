package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cometicitcare/dba-backend-sub002/internal/models"
	"github.com/cometicitcare/dba-backend-sub002/internal/service"
	appErrors "github.com/cometicitcare/dba-backend-sub002/pkg/errors"
	"github.com/cometicitcare/dba-backend-sub002/pkg/response"
)

var referenceKinds = map[string]models.ReferenceKind{
	"provinces": models.ReferenceProvince,
	"districts": models.ReferenceDistrict,
	"divisions": models.ReferenceDivision,
	"nikayas":   models.ReferenceNikaya,
}

// ReferenceHandler serves the cached reference-data lookups.
type ReferenceHandler struct {
	service *service.ReferenceService
}

// NewReferenceHandler creates a new handler.
func NewReferenceHandler(svc *service.ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{service: svc}
}

// List godoc
// @Summary List reference data
// @Tags References
// @Produce json
// @Param kind path string true "Reference table" Enums(provinces, districts, divisions, nikayas)
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /references/{kind} [get]
func (h *ReferenceHandler) List(c *gin.Context) {
	kind, ok := referenceKinds[c.Param("kind")]
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "unknown reference table"))
		return
	}
	items, err := h.service.List(c.Request.Context(), kind)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Get godoc
// @Summary Resolve a reference code
// @Tags References
// @Produce json
// @Param kind path string true "Reference table"
// @Param code path string true "Code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /references/{kind}/{code} [get]
func (h *ReferenceHandler) Get(c *gin.Context) {
	kind, ok := referenceKinds[c.Param("kind")]
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "unknown reference table"))
		return
	}
	item, err := h.service.Get(c.Request.Context(), kind, c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}
