package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cometicitcare/dba-backend-sub002/internal/dto"
	"github.com/cometicitcare/dba-backend-sub002/internal/models"
	"github.com/cometicitcare/dba-backend-sub002/internal/service"
	appErrors "github.com/cometicitcare/dba-backend-sub002/pkg/errors"
	"github.com/cometicitcare/dba-backend-sub002/pkg/response"
)

// RegistrationHandler wires the registration workflow endpoints.
type RegistrationHandler struct {
	service      *service.RegistrationService
	documents    *service.DocumentService
	certificates *service.CertificateService
}

// NewRegistrationHandler creates a new handler.
func NewRegistrationHandler(svc *service.RegistrationService, documents *service.DocumentService, certificates *service.CertificateService) *RegistrationHandler {
	return &RegistrationHandler{service: svc, documents: documents, certificates: certificates}
}

func entityFromPath(c *gin.Context) (models.RegistrationEntity, bool) {
	entity := models.RegistrationEntity(strings.ToLower(c.Param("entity")))
	for _, known := range models.KnownEntities {
		if entity == known {
			return entity, true
		}
	}
	response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "unknown registration category"))
	return "", false
}

// Create godoc
// @Summary Open a registration
// @Description Creates a registration record in its workflow's initial status
// @Tags Registrations
// @Accept json
// @Produce json
// @Param entity path string true "Registration category" Enums(temple, aramaya, bhikku, silmatha)
// @Param payload body dto.CreateRegistrationRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /registrations/{entity} [post]
func (h *RegistrationHandler) Create(c *gin.Context) {
	entity, ok := entityFromPath(c)
	if !ok {
		return
	}
	var req dto.CreateRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid registration payload"))
		return
	}
	record, err := h.service.Create(c.Request.Context(), entity, req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// Get godoc
// @Summary Fetch a registration
// @Tags Registrations
// @Produce json
// @Param entity path string true "Registration category"
// @Param id path string true "Record ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /registrations/{entity}/{id} [get]
func (h *RegistrationHandler) Get(c *gin.Context) {
	entity, ok := entityFromPath(c)
	if !ok {
		return
	}
	record, err := h.service.Get(c.Request.Context(), entity, c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// List godoc
// @Summary List registrations
// @Tags Registrations
// @Produce json
// @Param entity path string true "Registration category"
// @Param status query string false "Comma separated status filter"
// @Param search query string false "Registration number search"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} response.Envelope
// @Router /registrations/{entity} [get]
func (h *RegistrationHandler) List(c *gin.Context) {
	entity, ok := entityFromPath(c)
	if !ok {
		return
	}
	query := dto.RegistrationQuery{
		Search: c.Query("search"),
		Limit:  intQuery(c, "limit"),
		Offset: intQuery(c, "offset"),
	}
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				query.Status = append(query.Status, models.RegistrationStatus(strings.ToUpper(trimmed)))
			}
		}
	}
	records, err := h.service.List(c.Request.Context(), entity, query, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// Lookup godoc
// @Summary Look up a registration by number
// @Tags Registrations
// @Produce json
// @Param number query string true "Registration number"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /registrations [get]
func (h *RegistrationHandler) Lookup(c *gin.Context) {
	record, err := h.service.Lookup(c.Request.Context(), c.Query("number"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Action godoc
// @Summary Apply a workflow action
// @Description Runs one workflow action against a record under optimistic concurrency
// @Tags Registrations
// @Accept json
// @Produce json
// @Param entity path string true "Registration category"
// @Param id path string true "Record ID"
// @Param payload body dto.ActionRequest true "Action payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /registrations/{entity}/{id}/actions [post]
func (h *RegistrationHandler) Action(c *gin.Context) {
	entity, ok := entityFromPath(c)
	if !ok {
		return
	}
	var req dto.ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid action payload"))
		return
	}
	resp, err := h.service.Apply(c.Request.Context(), entity, c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// History godoc
// @Summary Transition history
// @Tags Registrations
// @Produce json
// @Param entity path string true "Registration category"
// @Param id path string true "Record ID"
// @Success 200 {object} response.Envelope
// @Router /registrations/{entity}/{id}/history [get]
func (h *RegistrationHandler) History(c *gin.Context) {
	entity, ok := entityFromPath(c)
	if !ok {
		return
	}
	events, err := h.service.History(c.Request.Context(), entity, c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, nil)
}

// Delete godoc
// @Summary Soft-delete a registration
// @Tags Registrations
// @Accept json
// @Produce json
// @Param entity path string true "Registration category"
// @Param id path string true "Record ID"
// @Param payload body dto.DeleteRegistrationRequest true "Delete payload"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /registrations/{entity}/{id} [delete]
func (h *RegistrationHandler) Delete(c *gin.Context) {
	entity, ok := entityFromPath(c)
	if !ok {
		return
	}
	var req dto.DeleteRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid delete payload"))
		return
	}
	if err := h.service.Delete(c.Request.Context(), entity, c.Param("id"), req, claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AttachDocument godoc
// @Summary Upload a scanned supporting document
// @Description Stores the scan and fires the document-attached workflow event
// @Tags Registrations
// @Accept multipart/form-data
// @Produce json
// @Param entity path string true "Registration category"
// @Param id path string true "Record ID"
// @Param expectedVersion formData int true "Version the caller read"
// @Param file formData file true "Scanned document"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /registrations/{entity}/{id}/documents [post]
func (h *RegistrationHandler) AttachDocument(c *gin.Context) {
	entity, ok := entityFromPath(c)
	if !ok {
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "a document file is required"))
		return
	}
	expectedVersion, err := strconv.Atoi(c.PostForm("expectedVersion"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "expectedVersion is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to read uploaded file"))
		return
	}
	defer file.Close() //nolint:errcheck

	resp, err := h.documents.Attach(c.Request.Context(), entity, c.Param("id"), service.DocumentUpload{
		Filename:        fileHeader.Filename,
		ContentType:     fileHeader.Header.Get("Content-Type"),
		Size:            fileHeader.Size,
		ExpectedVersion: expectedVersion,
		Body:            file,
	}, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// Certificate godoc
// @Summary Issue a signed certificate link
// @Tags Registrations
// @Produce json
// @Param entity path string true "Registration category"
// @Param id path string true "Record ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /registrations/{entity}/{id}/certificate [get]
func (h *RegistrationHandler) Certificate(c *gin.Context) {
	entity, ok := entityFromPath(c)
	if !ok {
		return
	}
	record, err := h.service.Get(c.Request.Context(), entity, c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	if record.PrintedAt == nil && record.Status != models.StatusCompleted {
		response.Error(c, appErrors.Clone(appErrors.ErrInvalidTransition, "certificate is available once the record has been printed"))
		return
	}
	link, err := h.certificates.Generate(c.Request.Context(), record)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link, nil)
}

// DownloadCertificate serves a stored certificate referenced by a signed token.
func (h *RegistrationHandler) DownloadCertificate(c *gin.Context) {
	file, err := h.certificates.Open(c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck
	c.Header("Content-Type", "application/pdf")
	c.File(file.Name())
}

func intQuery(c *gin.Context, key string) int {
	value, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return value
}
