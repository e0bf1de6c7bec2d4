package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cometicitcare/dba-backend-sub002/internal/middleware"
	"github.com/cometicitcare/dba-backend-sub002/internal/models"
	"github.com/cometicitcare/dba-backend-sub002/internal/repository"
	"github.com/cometicitcare/dba-backend-sub002/internal/service"
	"github.com/cometicitcare/dba-backend-sub002/pkg/response"
)

type fakeRegistrationStore struct {
	records map[string]*models.RegistrationRecord
}

func (s *fakeRegistrationStore) Create(_ context.Context, record *models.RegistrationRecord) error {
	record.ID = "rec-1"
	record.Version = 1
	s.records[record.ID] = record
	return nil
}

func (s *fakeRegistrationStore) GetByID(_ context.Context, entity models.RegistrationEntity, id string) (*models.RegistrationRecord, error) {
	record, ok := s.records[id]
	if !ok || record.Entity != entity {
		return nil, sql.ErrNoRows
	}
	clone := *record
	return &clone, nil
}

func (s *fakeRegistrationStore) GetByNumber(_ context.Context, _ string) (*models.RegistrationRecord, error) {
	return nil, sql.ErrNoRows
}

func (s *fakeRegistrationStore) List(_ context.Context, _ models.RegistrationFilter) ([]models.RegistrationRecord, error) {
	var out []models.RegistrationRecord
	for _, record := range s.records {
		out = append(out, *record)
	}
	return out, nil
}

func (s *fakeRegistrationStore) ApplyTransition(_ context.Context, params repository.TransitionUpdateParams) error {
	record, ok := s.records[params.ID]
	if !ok || record.Version != params.ExpectedVersion {
		return sql.ErrNoRows
	}
	record.Status = params.Status
	record.Version++
	return nil
}

func (s *fakeRegistrationStore) SoftDelete(_ context.Context, id string, expectedVersion int, _ string, _ *string) error {
	record, ok := s.records[id]
	if !ok || record.Version != expectedVersion {
		return sql.ErrNoRows
	}
	record.Deleted = true
	return nil
}

type fakeEventStore struct {
	events []*models.TransitionEvent
}

func (s *fakeEventStore) Append(_ context.Context, event *models.TransitionEvent) error {
	s.events = append(s.events, event)
	return nil
}

func (s *fakeEventStore) ListByRecord(_ context.Context, _ string) ([]models.TransitionEvent, error) {
	var out []models.TransitionEvent
	for _, event := range s.events {
		out = append(out, *event)
	}
	return out, nil
}

func setupRegistrationRouter(store *fakeRegistrationStore, role models.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := service.NewRegistrationService(store, &fakeEventStore{}, zap.NewNop())
	h := NewRegistrationHandler(svc, nil, nil)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if role != "" {
			c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-1", Role: role})
		}
		c.Next()
	})
	group := r.Group("/api/v1/registrations/:entity")
	group.POST("", h.Create)
	group.GET("/:id", h.Get)
	group.POST("/:id/actions", h.Action)
	group.GET("/:id/history", h.History)
	return r
}

func TestRegistrationHandlerCreateAndAct(t *testing.T) {
	store := &fakeRegistrationStore{records: map[string]*models.RegistrationRecord{}}
	r := setupRegistrationRouter(store, models.RoleDataEntry)

	body := bytes.NewBufferString(`{"stageOneData":{"fullName":"Ven. Sumana"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/registrations/bhikku", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var created response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	actionBody := bytes.NewBufferString(`{"action":"MARK_PRINTED","expectedVersion":1}`)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/registrations/bhikku/rec-1/actions", actionBody)
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"newStatus":"PRINTED"`)
	require.Contains(t, w.Body.String(), `"newVersion":2`)
}

func TestRegistrationHandlerUnknownEntity(t *testing.T) {
	store := &fakeRegistrationStore{records: map[string]*models.RegistrationRecord{}}
	r := setupRegistrationRouter(store, models.RoleDataEntry)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/registrations/monastery", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegistrationHandlerConflictStatus(t *testing.T) {
	store := &fakeRegistrationStore{records: map[string]*models.RegistrationRecord{
		"rec-1": {ID: "rec-1", Entity: models.EntityBhikku, Status: models.StatusPending, Version: 4},
	}}
	r := setupRegistrationRouter(store, models.RoleDataEntry)

	actionBody := bytes.NewBufferString(`{"action":"MARK_PRINTED","expectedVersion":2}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/registrations/bhikku/rec-1/actions", actionBody)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Contains(t, w.Body.String(), "CONFLICT")
}

func TestRegistrationHandlerForbiddenRole(t *testing.T) {
	store := &fakeRegistrationStore{records: map[string]*models.RegistrationRecord{
		"rec-1": {ID: "rec-1", Entity: models.EntityBhikku, Status: models.StatusPendApproval, Version: 1},
	}}
	r := setupRegistrationRouter(store, models.RoleDataEntry)

	actionBody := bytes.NewBufferString(`{"action":"APPROVE","expectedVersion":1}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/registrations/bhikku/rec-1/actions", actionBody)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestRegistrationHandlerAnonymous(t *testing.T) {
	store := &fakeRegistrationStore{records: map[string]*models.RegistrationRecord{}}
	r := setupRegistrationRouter(store, "")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/registrations/bhikku", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
