// Package service holds the multi-step flows that sit between HTTP handlers
// and the repositories.
package service

import (
    "context"
    "fmt"
    "time"

    "go.uber.org/zap"

    "github.com/iliyamo/maternal-health/internal/artifact"
    "github.com/iliyamo/maternal-health/internal/model"
    "github.com/iliyamo/maternal-health/internal/predictor"
    "github.com/iliyamo/maternal-health/internal/queue"
)

// RecordStore is the part of repository.MaternalRepo the submission flow
// needs.
type RecordStore interface {
    Create(ctx context.Context, rec *model.MaternalRecord) (uint64, error)
    GetByID(ctx context.Context, id uint64) (*model.MaternalRecord, error)
}

// Predictor scores a stored record.
type Predictor interface {
    Predict(ctx context.Context, record any, opts predictor.Options) (*predictor.Result, error)
}

// Submission is the outcome of one submit: the stored row plus whatever
// the prediction steps produced.  Prediction and PredictionFile are nil
// when the matching step failed.
type Submission struct {
    Record         *model.MaternalRecord
    Prediction     *predictor.Result
    PredictionFile *string
}

// SubmissionService runs insert, re-read, predict, save artifact and
// publish, in that order.  Only the first two steps can fail the request.
type SubmissionService struct {
    records   RecordStore
    predictor Predictor
    artifacts artifact.Store
    publisher Publisher
    log       *zap.Logger

    publishTimeout time.Duration
    now            func() time.Time
}

// NewSubmissionService wires the flow.  predictor, artifacts and publisher
// may be nil, which skips their step.
func NewSubmissionService(records RecordStore, p Predictor, artifacts artifact.Store, pub Publisher, log *zap.Logger) *SubmissionService {
    if pub == nil {
        pub = NopPublisher{}
    }
    if log == nil {
        log = zap.NewNop()
    }
    return &SubmissionService{
        records:        records,
        predictor:      p,
        artifacts:      artifacts,
        publisher:      pub,
        log:            log,
        publishTimeout: 3 * time.Second,
        now:            time.Now,
    }
}

// Submit stores rec and scores it.
func (s *SubmissionService) Submit(ctx context.Context, rec *model.MaternalRecord) (*Submission, error) {
    id, err := s.records.Create(ctx, rec)
    if err != nil {
        return nil, err
    }
    stored, err := s.records.GetByID(ctx, id)
    if err != nil {
        return nil, fmt.Errorf("re-read record %d: %w", id, err)
    }
    out := &Submission{Record: stored}
    log := s.log.With(zap.Uint64("record_id", id))

    if s.predictor != nil {
        res, err := s.predictor.Predict(ctx, stored, predictor.Options{})
        if err != nil {
            log.Warn("prediction failed", zap.Error(err))
        } else {
            out.Prediction = res
        }
    }

    if out.Prediction != nil && s.artifacts != nil {
        loc, err := s.artifacts.Save(ctx, id, out.Prediction)
        if err != nil {
            log.Warn("saving prediction artifact failed", zap.Error(err))
        } else {
            out.PredictionFile = &loc
        }
    }

    s.publish(ctx, out, log)
    return out, nil
}

func (s *SubmissionService) publish(ctx context.Context, sub *Submission, log *zap.Logger) {
    ev := queue.SubmissionEvent{
        RecordID:    sub.Record.ID,
        UserID:      sub.Record.SubmittedBy,
        SubmittedAt: s.now().UTC().Format(time.RFC3339),
    }
    if sub.Record.ExternalID != nil {
        ev.ExternalID = *sub.Record.ExternalID
    }
    if r, ok := sub.Prediction.RiskScore(); ok {
        ev.Risk = &r
    }
    if sub.PredictionFile != nil {
        ev.PredictionFile = *sub.PredictionFile
    }

    ctx, cancel := context.WithTimeout(ctx, s.publishTimeout)
    defer cancel()
    if err := s.publisher.PublishSubmission(ctx, ev); err != nil {
        log.Warn("publishing submission event failed", zap.Error(err))
    }
}
