package check

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/bina-labs/kanun/pkg/bylaw"
	"github.com/bina-labs/kanun/pkg/engine"
	"github.com/bina-labs/kanun/pkg/observability"
)

// Service orchestrates the check lifecycle over a Store and an Engine.
// Run is the only operation that transitions state, and it completes
// synchronously: a check is never left in-progress past the call.
type Service struct {
	store   Store
	engine  *engine.Engine
	logger  *slog.Logger
	metrics *observability.Provider // nil disables instrumentation
	clock   func() time.Time
	newID   func() string
}

// NewService wires a check service.
func NewService(store Store, eng *engine.Engine, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		engine: eng,
		logger: logger,
		clock:  time.Now,
		newID:  uuid.NewString,
	}
}

// WithMetrics attaches an observability provider. Run then records one
// check-evaluated data point per completed check and one error per failure.
func (s *Service) WithMetrics(p *observability.Provider) *Service {
	s.metrics = p
	return s
}

// WithClock overrides the clock for testing.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// WithIDFunc overrides id generation for testing.
func (s *Service) WithIDFunc(fn func() string) *Service {
	s.newID = fn
	return s
}

// Create validates the specification and persists a pending check. A
// ValidationError means nothing was stored and nothing was evaluated.
func (s *Service) Create(ctx context.Context, spec *bylaw.BuildingSpecification) (*ComplianceCheck, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	c := &ComplianceCheck{
		ID:             s.newID(),
		ProjectID:      spec.ProjectID,
		ProjectName:    spec.ProjectName,
		BuildingType:   spec.BuildingType,
		BuildingHeight: spec.BuildingHeight,
		FloorArea:      spec.FloorArea,
		Occupancy:      spec.Occupancy,
		CheckDate:      s.clock().UTC(),
		Status:         StatusPending,
	}
	if err := s.store.Insert(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Run evaluates a pending check to a terminal state. Evaluation errors on
// individual clauses do not fail the check; it completes with warnings in
// the result. An unrecoverable engine error marks the check failed with no
// partial result.
func (s *Service) Run(ctx context.Context, checkID string) (*ComplianceCheck, error) {
	start := time.Now()
	if s.metrics != nil {
		var span trace.Span
		ctx, span = s.metrics.StartSpan(ctx, "check.run")
		defer span.End()
	}

	c, err := s.store.Get(ctx, checkID)
	if err != nil {
		return nil, err
	}
	if c.Status != StatusPending {
		return nil, bylaw.ErrInvalidState
	}

	c.Status = StatusInProgress
	if err := s.store.Update(ctx, c); err != nil {
		return nil, err
	}

	result, evalErr := s.engine.Evaluate(c.Spec())
	if evalErr != nil {
		c.Status = StatusFailed
		c.Result = nil
		c.FailureReason = evalErr.Error()
		if err := s.store.Update(ctx, c); err != nil {
			return nil, err
		}
		if s.metrics != nil {
			s.metrics.RecordError(ctx, "check.run")
		}
		s.logger.Error("check failed", "check_id", c.ID, "reason", c.FailureReason)
		return c, nil
	}

	c.Status = StatusCompleted
	c.Result = result
	if err := s.store.Update(ctx, c); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordCheck(ctx, string(c.BuildingType), len(result.Violations), time.Since(start))
	}
	s.logger.Info("check completed",
		"check_id", c.ID,
		"project_id", c.ProjectID,
		"score", result.ComplianceScore,
		"violations", len(result.Violations),
		"warnings", len(result.EvaluationErrors))
	return c, nil
}

// RunSpec is the single-call form used by external collaborators:
// create a check from the specification and run it to a terminal state.
func (s *Service) RunSpec(ctx context.Context, spec *bylaw.BuildingSpecification) (*ComplianceCheck, error) {
	c, err := s.Create(ctx, spec)
	if err != nil {
		return nil, err
	}
	// The pending record stays behind for diagnosis if Run errors out;
	// no result was produced so surfacing the error is correct.
	return s.Run(ctx, c.ID)
}

// Get returns a check by id.
func (s *Service) Get(ctx context.Context, checkID string) (*ComplianceCheck, error) {
	return s.store.Get(ctx, checkID)
}

// ListByProject returns a project's append-only check history, newest first.
func (s *Service) ListByProject(ctx context.Context, projectID string) ([]*ComplianceCheck, error) {
	return s.store.ListByProject(ctx, projectID)
}
