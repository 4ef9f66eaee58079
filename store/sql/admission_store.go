// Package sqlstore persists admission outcomes through bun so hosts can
// audit what the verification chain decided and why.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-receivers/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Admission is one audited verification decision.
type Admission struct {
	Outcome   core.Outcome
	Method    string
	CreatedAt time.Time
}

type AdmissionStore struct {
	db   *bun.DB
	repo repository.Repository[*admissionRecord]
}

func NewAdmissionStore(db *bun.DB) (*AdmissionStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*admissionRecord](db, admissionHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid admission repository wiring: %w", err)
		}
	}
	return &AdmissionStore{
		db:   db,
		repo: repo,
	}, nil
}

// EnsureSchema creates the admission table when it does not exist.
func (s *AdmissionStore) EnsureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: admission store is not configured")
	}
	_, err := s.db.NewCreateTable().
		Model((*admissionRecord)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

// ObserveOutcome records one decision. Observer failures never change the
// verdict, so callers treat the returned error as log-only.
func (s *AdmissionStore) ObserveOutcome(ctx context.Context, req core.InboundRequest, outcome core.Outcome) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: admission store is not configured")
	}
	record := &admissionRecord{
		ID:         strings.TrimSpace(outcome.ID),
		Receiver:   outcome.Receiver,
		InstanceID: outcome.InstanceID,
		Decision:   string(outcome.Decision),
		Events:     append([]string{}, outcome.Events...),
		StatusCode: outcome.StatusCode,
		Reason:     outcome.Reason,
		Stage:      outcome.Stage,
		Method:     req.Method,
		Metadata:   outcome.Metadata,
		CreatedAt:  time.Now().UTC(),
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if _, err := s.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return fmt.Errorf("sqlstore: record admission for receiver %q: %w", outcome.Receiver, err)
	}
	return nil
}

func (s *AdmissionStore) Get(ctx context.Context, id string) (Admission, error) {
	if s == nil || s.db == nil {
		return Admission{}, fmt.Errorf("sqlstore: admission store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Admission{}, fmt.Errorf("sqlstore: admission id is required")
	}
	record := &admissionRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return Admission{}, fmt.Errorf("sqlstore: admission %q not found", id)
		}
		return Admission{}, err
	}
	return admissionToDomain(record), nil
}

// ListRecent returns the newest admissions for a receiver, most recent
// first. An empty receiver lists across all receivers.
func (s *AdmissionStore) ListRecent(ctx context.Context, receiver string, limit int) ([]Admission, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: admission store is not configured")
	}
	if limit <= 0 {
		limit = 50
	}
	records := []*admissionRecord{}
	query := s.db.NewSelect().
		Model(&records).
		OrderExpr("?TableAlias.created_at DESC").
		Limit(limit)
	if receiver = strings.TrimSpace(receiver); receiver != "" {
		query = query.Where("lower(?TableAlias.receiver) = lower(?)", receiver)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, err
	}
	admissions := make([]Admission, 0, len(records))
	for _, record := range records {
		admissions = append(admissions, admissionToDomain(record))
	}
	return admissions, nil
}

func admissionToDomain(record *admissionRecord) Admission {
	if record == nil {
		return Admission{}
	}
	return Admission{
		Outcome: core.Outcome{
			ID:         record.ID,
			Decision:   core.Decision(record.Decision),
			Receiver:   record.Receiver,
			InstanceID: record.InstanceID,
			Events:     append([]string(nil), record.Events...),
			StatusCode: record.StatusCode,
			Reason:     record.Reason,
			Stage:      record.Stage,
			Metadata:   record.Metadata,
		},
		Method:    record.Method,
		CreatedAt: record.CreatedAt,
	}
}

var _ core.OutcomeObserver = (*AdmissionStore)(nil)
