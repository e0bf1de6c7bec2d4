package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cometicitcare/dba-backend-sub002/internal/dto"
	"github.com/cometicitcare/dba-backend-sub002/internal/models"
	appErrors "github.com/cometicitcare/dba-backend-sub002/pkg/errors"
	"github.com/cometicitcare/dba-backend-sub002/pkg/storage"
)

// DocumentUpload describes an incoming scanned supporting document.
type DocumentUpload struct {
	Filename        string
	ContentType     string
	Size            int64
	ExpectedVersion int
	Body            io.Reader
}

// DocumentService stores scanned supporting documents. Storing a scan for a
// printed record fires the implicit DOCUMENT_ATTACHED workflow event through
// the same engine as every user-driven transition; the event is internal and
// cannot be requested through the action endpoint. A refused event leaves no
// file behind, and a storage failure leaves the record untouched so the scan
// can simply be re-sent.
type DocumentService struct {
	registrations *RegistrationService
	store         *storage.LocalStorage
	maxSize       int64
	allowedMIMEs  map[string]struct{}
	logger        *zap.Logger
}

// NewDocumentService constructs the service.
func NewDocumentService(registrations *RegistrationService, store *storage.LocalStorage, maxSize int64, allowedMIMEs []string, logger *zap.Logger) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxSize <= 0 {
		maxSize = 10 * 1024 * 1024
	}
	allowed := make(map[string]struct{}, len(allowedMIMEs))
	for _, m := range allowedMIMEs {
		allowed[strings.ToLower(strings.TrimSpace(m))] = struct{}{}
	}
	return &DocumentService{
		registrations: registrations,
		store:         store,
		maxSize:       maxSize,
		allowedMIMEs:  allowed,
		logger:        logger,
	}
}

// Attach validates the upload, stores the scan, then drives the record
// through the DOCUMENT_ATTACHED transition.
func (s *DocumentService) Attach(ctx context.Context, entity models.RegistrationEntity, recordID string, upload DocumentUpload, actor *models.JWTClaims) (*dto.ActionResponse, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if upload.Body == nil || upload.Filename == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "a document file is required")
	}
	if upload.Size > s.maxSize {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("document exceeds the %d byte limit", s.maxSize))
	}
	if len(s.allowedMIMEs) > 0 {
		if _, ok := s.allowedMIMEs[strings.ToLower(upload.ContentType)]; !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("content type %s is not accepted", upload.ContentType))
		}
	}

	record, err := s.registrations.Get(ctx, entity, recordID, actor)
	if err != nil {
		return nil, err
	}

	// The file is written before the transition commits and discarded again
	// if the event is refused, so neither side can end up half-done: a
	// storage failure leaves the record where it was, a refused event leaves
	// no orphan file.
	relPath := s.documentPath(record, upload.Filename)
	if _, err := s.store.SaveStream(relPath, io.LimitReader(upload.Body, s.maxSize)); err != nil {
		s.discard(relPath)
		s.logger.Error("failed to store scanned document",
			zap.String("record_id", recordID),
			zap.String("filename", upload.Filename),
			zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to store scanned document")
	}

	resp, err := s.registrations.apply(ctx, entity, recordID, dto.ActionRequest{
		Action:          models.ActionDocumentAttached,
		ExpectedVersion: upload.ExpectedVersion,
	}, actor, true)
	if err != nil {
		s.discard(relPath)
		return nil, err
	}

	s.logger.Info("scanned document attached",
		zap.String("record_id", recordID),
		zap.String("path", relPath))
	return resp, nil
}

func (s *DocumentService) discard(relPath string) {
	if err := s.store.Delete(relPath); err != nil {
		s.logger.Warn("failed to remove stored document after refused upload",
			zap.String("path", relPath),
			zap.Error(err))
	}
}

func (s *DocumentService) documentPath(record *models.RegistrationRecord, filename string) string {
	base := filepath.Base(filename)
	return fmt.Sprintf("%s/%s/%d-%s", record.Entity, record.RegistrationNumber, time.Now().UTC().Unix(), base)
}
