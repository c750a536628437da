package services

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/pratik-mahalle/amiaudit/internal/domain/finding"
	"github.com/pratik-mahalle/amiaudit/internal/pkg/logger"
	"github.com/pratik-mahalle/amiaudit/internal/pkg/validator"
)

// LocalFindingStore implements finding.Store over the local findings mirror.
// Malformed findings are rejected per item; repository failures reject the
// affected item only.
type LocalFindingStore struct {
	repo      finding.Repository
	validator *validator.Validator
	logger    *logger.Logger
}

// NewLocalFindingStore creates a store writing to repo
func NewLocalFindingStore(repo finding.Repository, log *logger.Logger) *LocalFindingStore {
	return &LocalFindingStore{
		repo:      repo,
		validator: validator.New(),
		logger:    log.WithComponent("local_store"),
	}
}

// BatchImport validates and upserts each finding
func (s *LocalFindingStore) BatchImport(ctx context.Context, findings []finding.Finding) (*finding.ImportResult, error) {
	res := &finding.ImportResult{}

	for i := range findings {
		f := findings[i]

		if errs := s.validator.Validate(&f); len(errs) > 0 {
			res.Failed = append(res.Failed, finding.FailedImport{
				FindingID:    f.ID,
				ErrorCode:    finding.ErrCodeInvalid,
				ErrorMessage: validator.Summary(errs),
			})
			continue
		}

		if err := s.repo.Upsert(ctx, &f); err != nil {
			res.Failed = append(res.Failed, finding.FailedImport{
				FindingID:    f.ID,
				ErrorCode:    finding.ErrCodeRejected,
				ErrorMessage: err.Error(),
			})
			continue
		}

		res.SuccessCount++
	}

	return res, nil
}

// WriterStore implements finding.Store by writing findings as JSON lines
type WriterStore struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewWriterStore creates a store writing to w
func NewWriterStore(w io.Writer) *WriterStore {
	return &WriterStore{enc: json.NewEncoder(w)}
}

// BatchImport writes every finding in order
func (s *WriterStore) BatchImport(ctx context.Context, findings []finding.Finding) (*finding.ImportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := &finding.ImportResult{}
	for i := range findings {
		if err := s.enc.Encode(&findings[i]); err != nil {
			return nil, err
		}
		res.SuccessCount++
	}
	return res, nil
}

// MirroredStore submits to a primary store and copies accepted findings into
// a mirror. Mirror failures are logged and never change the result.
type MirroredStore struct {
	primary finding.Store
	mirror  finding.Store
	logger  *logger.Logger
}

// NewMirroredStore creates a store writing to primary and mirror
func NewMirroredStore(primary, mirror finding.Store, log *logger.Logger) *MirroredStore {
	return &MirroredStore{
		primary: primary,
		mirror:  mirror,
		logger:  log.WithComponent("mirrored_store"),
	}
}

// BatchImport submits to the primary, then mirrors what it accepted
func (s *MirroredStore) BatchImport(ctx context.Context, findings []finding.Finding) (*finding.ImportResult, error) {
	res, err := s.primary.BatchImport(ctx, findings)
	if err != nil {
		return nil, err
	}

	accepted := findings
	if res != nil && len(res.Failed) > 0 {
		rejected := make(map[string]struct{}, len(res.Failed))
		for _, fi := range res.Failed {
			rejected[fi.FindingID] = struct{}{}
		}
		accepted = make([]finding.Finding, 0, len(findings))
		for _, f := range findings {
			if _, ok := rejected[f.ID]; !ok {
				accepted = append(accepted, f)
			}
		}
	}

	if len(accepted) == 0 {
		return res, nil
	}

	mres, merr := s.mirror.BatchImport(ctx, accepted)
	switch {
	case merr != nil:
		s.logger.WithFields(map[string]interface{}{
			"count": len(accepted),
		}).WarnWithErr(merr, "Failed to mirror findings")
	case mres != nil && len(mres.Failed) > 0:
		for _, fi := range mres.Failed {
			s.logger.WithFields(map[string]interface{}{
				"finding_id": fi.FindingID,
				"error_code": fi.ErrorCode,
			}).Warn("Finding not mirrored: " + fi.ErrorMessage)
		}
	}

	return res, nil
}
