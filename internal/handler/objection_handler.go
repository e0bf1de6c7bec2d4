package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cometicitcare/dba-backend-sub002/internal/dto"
	"github.com/cometicitcare/dba-backend-sub002/internal/models"
	"github.com/cometicitcare/dba-backend-sub002/internal/service"
	appErrors "github.com/cometicitcare/dba-backend-sub002/pkg/errors"
	"github.com/cometicitcare/dba-backend-sub002/pkg/response"
)

// ObjectionHandler wires the objection workflow endpoints.
type ObjectionHandler struct {
	service *service.ObjectionService
}

// NewObjectionHandler creates a new handler.
func NewObjectionHandler(svc *service.ObjectionService) *ObjectionHandler {
	return &ObjectionHandler{service: svc}
}

// Create godoc
// @Summary File an objection
// @Tags Objections
// @Accept json
// @Produce json
// @Param payload body dto.CreateObjectionRequest true "Objection payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /objections [post]
func (h *ObjectionHandler) Create(c *gin.Context) {
	var req dto.CreateObjectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid objection payload"))
		return
	}
	objection, err := h.service.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, objection)
}

// Get godoc
// @Summary Fetch an objection
// @Tags Objections
// @Produce json
// @Param id path string true "Objection ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /objections/{id} [get]
func (h *ObjectionHandler) Get(c *gin.Context) {
	objection, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, objection, nil)
}

// List godoc
// @Summary List objections
// @Tags Objections
// @Produce json
// @Param registrationId query string false "Filter by registration"
// @Param status query string false "Comma separated status filter"
// @Success 200 {object} response.Envelope
// @Router /objections [get]
func (h *ObjectionHandler) List(c *gin.Context) {
	query := dto.ObjectionQuery{
		RegistrationID: c.Query("registrationId"),
		Limit:          intQuery(c, "limit"),
		Offset:         intQuery(c, "offset"),
	}
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				query.Status = append(query.Status, models.ObjectionStatus(strings.ToUpper(trimmed)))
			}
		}
	}
	objections, err := h.service.List(c.Request.Context(), query, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, objections, nil)
}

// Action godoc
// @Summary Apply an objection workflow action
// @Tags Objections
// @Accept json
// @Produce json
// @Param id path string true "Objection ID"
// @Param payload body dto.ObjectionActionRequest true "Action payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /objections/{id}/actions [post]
func (h *ObjectionHandler) Action(c *gin.Context) {
	var req dto.ObjectionActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid action payload"))
		return
	}
	objection, err := h.service.Apply(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, objection, nil)
}
