package garage

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/parkwise/parkwise/internal/model"
	"github.com/parkwise/parkwise/internal/repository"
)

const (
	defaultOpTimeout       = 5 * time.Second
	defaultReserveAttempts = 3
)

// EventSink receives lifecycle notifications after an operation has
// fully committed.  Publishing is best effort: a sink failure is
// logged, never surfaced to the caller, and never rolls anything back.
type EventSink interface {
	SessionStarted(ctx context.Context, sess *model.Session, spot *model.Spot)
	SessionClosed(ctx context.Context, sess *model.Session, spot *model.Spot)
}

// Service orchestrates check-ins, check-outs and availability queries
// over the repository contracts.  It owns no locks of its own; the
// concurrency guarantees come from the stores' atomic conditional
// writes plus a bounded retry loop around spot reservation.
type Service struct {
	spots    repository.SpotRepository
	vehicles repository.VehicleRepository
	sessions repository.SessionRepository
	events   EventSink
	log      *zap.SugaredLogger

	opTimeout       time.Duration
	reserveAttempts int
}

// Options tunes a Service.  Zero values fall back to sensible
// defaults; Events may stay nil when no broker is configured.
type Options struct {
	Events          EventSink
	Logger          *zap.SugaredLogger
	OpTimeout       time.Duration
	ReserveAttempts int
}

// NewService wires a Service over the given stores.
func NewService(stores repository.Stores, opts Options) *Service {
	if opts.OpTimeout <= 0 {
		opts.OpTimeout = defaultOpTimeout
	}
	if opts.ReserveAttempts <= 0 {
		opts.ReserveAttempts = defaultReserveAttempts
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	return &Service{
		spots:           stores.Spots,
		vehicles:        stores.Vehicles,
		sessions:        stores.Sessions,
		events:          opts.Events,
		log:             opts.Logger,
		opTimeout:       opts.OpTimeout,
		reserveAttempts: opts.ReserveAttempts,
	}
}

// rollback unwinds the compensation stack with a fresh context so the
// undo writes still run when the operation's own context has already
// expired.  Unwind failures are logged; the original error is what the
// caller sees.
func (s *Service) rollback(op string, comp *compensationStack) {
	ctx, cancel := context.WithTimeout(context.Background(), s.opTimeout)
	defer cancel()
	for _, err := range comp.unwind(ctx) {
		s.log.Errorw("rollback step failed", "op", op, "error", err)
	}
}
