package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/cometicitcare/dba-backend-sub002/internal/models"
	appErrors "github.com/cometicitcare/dba-backend-sub002/pkg/errors"
	"github.com/cometicitcare/dba-backend-sub002/pkg/export"
	"github.com/cometicitcare/dba-backend-sub002/pkg/storage"
)

var entityLabels = map[models.RegistrationEntity]string{
	models.EntityTemple:   "Temple Registration",
	models.EntityAramaya:  "Aramaya Registration",
	models.EntityBhikku:   "Bhikku Registration",
	models.EntitySilmatha: "Silmatha Registration",
}

// CertificateService renders registration certificates as PDFs, stores them,
// and issues signed download tokens. Rendering is triggered when a record is
// marked printed and can be repeated on demand for completed records.
type CertificateService struct {
	renderer *export.CertificateRenderer
	store    *storage.LocalStorage
	signer   *storage.SignedURLSigner
	logger   *zap.Logger
}

// NewCertificateService constructs the service.
func NewCertificateService(renderer *export.CertificateRenderer, store *storage.LocalStorage, signer *storage.SignedURLSigner, logger *zap.Logger) *CertificateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CertificateService{renderer: renderer, store: store, signer: signer, logger: logger}
}

// CertificateLink points at a rendered certificate.
type CertificateLink struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func certificatePath(record *models.RegistrationRecord) string {
	return fmt.Sprintf("%s/%s.pdf", record.Entity, record.RegistrationNumber)
}

// Generate renders and stores the certificate for a record, returning a
// signed download link.
func (s *CertificateService) Generate(_ context.Context, record *models.RegistrationRecord) (*CertificateLink, error) {
	if record == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "record is required")
	}
	data := export.CertificateData{
		Title:              "Certificate of Registration",
		RegistrationNumber: record.RegistrationNumber,
		EntityLabel:        entityLabels[record.Entity],
		Fields:             certificateFields(record),
	}
	if record.PrintedBy != nil {
		data.PrintedBy = *record.PrintedBy
	}
	if record.PrintedAt != nil {
		data.PrintedAt = *record.PrintedAt
	}

	pdf, err := s.renderer.Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render certificate")
	}
	relPath, err := s.store.Save(certificatePath(record), pdf)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store certificate")
	}

	token, expiresAt, err := s.signer.Generate(record.ID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign certificate link")
	}
	s.logger.Info("certificate generated",
		zap.String("record_id", record.ID),
		zap.String("registration_number", record.RegistrationNumber))
	return &CertificateLink{Token: token, ExpiresAt: expiresAt}, nil
}

// Open validates a signed token and returns the stored certificate file.
func (s *CertificateService) Open(token string) (*os.File, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid or expired certificate link")
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "certificate file not found")
	}
	return file, nil
}

// OnTransition implements TransitionHook: an accepted MARK_PRINTED renders
// the certificate as a side effect of the transition.
func (s *CertificateService) OnTransition(ctx context.Context, record *models.RegistrationRecord, event *models.TransitionEvent) {
	if event == nil || event.Action != string(models.ActionMarkPrinted) {
		return
	}
	if _, err := s.Generate(ctx, record); err != nil {
		s.logger.Error("certificate generation failed after print",
			zap.String("record_id", record.ID),
			zap.Error(err))
	}
}

// certificateFields flattens the registration's stage data into labelled
// lines, sorted by key so the layout is stable between renders.
func certificateFields(record *models.RegistrationRecord) []export.CertificateField {
	merged := map[string]interface{}{}
	for _, raw := range [][]byte{record.StageOneData, record.StageTwoData} {
		if len(raw) == 0 {
			continue
		}
		var stage map[string]interface{}
		if err := json.Unmarshal(raw, &stage); err != nil {
			continue
		}
		for k, v := range stage {
			merged[k] = v
		}
	}
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]export.CertificateField, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, export.CertificateField{
			Label: k,
			Value: fmt.Sprintf("%v", merged[k]),
		})
	}
	return fields
}
