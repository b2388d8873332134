// Package rating classifies and prices calls, one at a time or in batches.
package rating

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/callcharge-production/internal/charge"
	"github.com/callcharge-production/internal/classify"
	apperrors "github.com/callcharge-production/internal/errors"
	"github.com/callcharge-production/internal/metrics"
	"github.com/callcharge-production/internal/models"
	"github.com/callcharge-production/internal/normalize"
	"github.com/callcharge-production/internal/rateconfig"
	"github.com/callcharge-production/internal/reference"
)

// Service rates calls against a tenant's configuration. It holds no
// per-tenant state and is safe for concurrent use.
type Service struct {
	normalizer *normalize.Normalizer
	classifier *classify.Classifier
	calculator *charge.Calculator
	workers    int
	logger     *zap.Logger
}

// Options configures a Service. Zero values pick defaults.
type Options struct {
	Tables   *reference.Tables
	Location *time.Location
	Workers  int
}

func NewService(opts Options, logger *zap.Logger) *Service {
	if opts.Tables == nil {
		opts.Tables = reference.Default()
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		normalizer: normalize.New(opts.Location),
		classifier: classify.New(opts.Tables),
		calculator: charge.New(opts.Tables),
		workers:    opts.Workers,
		logger:     logger.Named("rating"),
	}
}

// RateCall classifies and prices a normalized call.
func (s *Service) RateCall(call *models.Call, cfg *rateconfig.Configuration) (*models.RatedCall, error) {
	nt := s.classifier.Classify(call, cfg)
	res, err := s.calculator.Rate(call, nt, cfg)
	if err != nil {
		return nil, err
	}
	return &models.RatedCall{Call: *call, NumberType: nt, Charge: res.Charge, Rule: res.Rule}, nil
}

// RateRow normalizes row and rates it.
func (s *Service) RateRow(row models.CallRow, cfg *rateconfig.Configuration) (*models.RatedCall, error) {
	call, err := s.normalizer.Call(row)
	if err != nil {
		return nil, err
	}
	return s.RateCall(call, cfg)
}

// RecordError is a record that could not be rated.
type RecordError struct {
	Index      int    `json:"index"`
	SequenceID string `json:"sequence_id"`
	Err        error  `json:"-"`
}

func (e RecordError) Error() string {
	return "record " + e.SequenceID + ": " + e.Err.Error()
}

func (e RecordError) Unwrap() error {
	return e.Err
}

// BatchResult holds the rated calls of a batch in input order, followed by
// the records that failed.
type BatchResult struct {
	RunID  uuid.UUID          `json:"run_id"`
	Calls  []models.RatedCall `json:"calls"`
	Errors []RecordError      `json:"errors"`
}

type outcome struct {
	rated *models.RatedCall
	err   error
}

// RateBatch rates rows on a bounded worker pool. A record that fails is
// reported in Errors and does not stop the batch. The only error returned
// is the context's, when it is cancelled before every row was submitted.
func (s *Service) RateBatch(ctx context.Context, rows []models.CallRow, cfg *rateconfig.Configuration) (*BatchResult, error) {
	runID := uuid.New()
	logger := s.logger.With(zap.String("run_id", runID.String()), zap.Int("records", len(rows)))
	if cfg != nil {
		logger = logger.With(zap.String("tenant", cfg.Tenant))
	}

	started := time.Now()
	metrics.BatchSize.Observe(float64(len(rows)))
	defer func() { metrics.BatchDuration.Observe(time.Since(started).Seconds()) }()

	results := make([]outcome, len(rows))
	jobs := make(chan int)

	workers := s.workers
	if workers > len(rows) {
		workers = len(rows)
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for idx := range jobs {
				rated, err := s.RateRow(rows[idx], cfg)
				results[idx] = outcome{rated: rated, err: err}
			}
		}()
	}

	var cancelled error
feed:
	for i := range rows {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}
		select {
		case jobs <- i:
		case <-ctx.Done():
			cancelled = ctx.Err()
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if cancelled != nil {
		logger.Warn("batch cancelled", zap.Error(cancelled))
		return nil, cancelled
	}

	out := &BatchResult{RunID: runID, Calls: make([]models.RatedCall, 0, len(rows))}
	for i, r := range results {
		if r.err != nil {
			kind := apperrors.TypeOf(r.err)
			if kind == "" {
				kind = apperrors.TypeInternal
			}
			metrics.CallsRejected.WithLabelValues(string(kind)).Inc()
			logger.Warn("record rejected",
				zap.Int("index", i),
				zap.String("sequence_id", rows[i].SequenceID),
				zap.Error(r.err))
			out.Errors = append(out.Errors, RecordError{Index: i, SequenceID: rows[i].SequenceID, Err: r.err})
			continue
		}
		metrics.CallsRated.WithLabelValues(r.rated.Rule).Inc()
		metrics.NumberTypes.WithLabelValues(metrics.Family(r.rated.NumberType)).Inc()
		out.Calls = append(out.Calls, *r.rated)
	}

	logger.Info("batch rated",
		zap.Int("rated", len(out.Calls)),
		zap.Int("rejected", len(out.Errors)),
		zap.Duration("elapsed", time.Since(started)))
	return out, nil
}
