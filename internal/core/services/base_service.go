package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/travel_agency_ledger/internal/apperrors"
	"github.com/SscSPs/travel_agency_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/travel_agency_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/travel_agency_ledger/internal/dto"
	"github.com/SscSPs/travel_agency_ledger/internal/middleware"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// BaseService provides common functionality for all services: logging and the
// agency business calendar.
type BaseService struct {
	location        *time.Location
	clock           func() time.Time
	riskWarningDays int
}

// ServiceOption is a functional option for configuring services
type ServiceOption func(*BaseService)

// WithLocation sets the agency time zone that business dates are taken in.
func WithLocation(loc *time.Location) ServiceOption {
	return func(s *BaseService) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithClock replaces time.Now.
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *BaseService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithRiskWarningDays sets the window in which an unpaid supplier deadline turns YELLOW.
func WithRiskWarningDays(days int) ServiceOption {
	return func(s *BaseService) {
		if days > 0 {
			s.riskWarningDays = days
		}
	}
}

func newBaseService(options ...ServiceOption) BaseService {
	base := BaseService{
		location:        time.UTC,
		clock:           time.Now,
		riskWarningDays: 7,
	}
	for _, option := range options {
		option(&base)
	}
	return base
}

// Now returns the current instant.
func (s *BaseService) Now() time.Time {
	if s.clock == nil {
		return time.Now()
	}
	return s.clock()
}

// Location returns the agency time zone.
func (s *BaseService) Location() *time.Location {
	if s.location == nil {
		return time.UTC
	}
	return s.location
}

// Today is the current agency-local business day.
func (s *BaseService) Today() time.Time {
	return domain.DateOnly(s.Now(), s.Location())
}

// businessDate parses an optional request date, defaulting to today.
func (s *BaseService) businessDate(value *string) (time.Time, error) {
	d, err := dto.ParseBusinessDate(value, s.Location(), s.Now())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	return d, nil
}

// validateMoney rejects amounts the two-decimal money columns would round.
func validateMoney(field string, amount decimal.Decimal) error {
	if err := domain.CheckMoney(field, amount); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	return nil
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	logger := middleware.GetLoggerFromCtx(ctx)
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	logger.Error(msg, args...)
}

// LogWarn logs a warning with consistent formatting
func (s *BaseService) LogWarn(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Warn(msg, keyvals...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Debug(msg, keyvals...)
}

// runInTx runs fn as one atomic unit: it commits when fn succeeds and rolls back otherwise.
func (s *BaseService) runInTx(ctx context.Context, txManager portsrepo.TransactionManager, fn func(tx pgx.Tx) error) error {
	tx, err := txManager.Begin(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to begin transaction")
		return fmt.Errorf("%w: failed to begin transaction: %v", apperrors.ErrInternal, err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := txManager.Rollback(ctx, tx); rbErr != nil {
			s.LogError(ctx, rbErr, "Failed to roll back transaction")
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := txManager.Commit(ctx, tx); err != nil {
		s.LogError(ctx, err, "Failed to commit transaction")
		return fmt.Errorf("%w: failed to commit transaction: %v", apperrors.ErrInternal, err)
	}
	committed = true
	return nil
}

// noopExposureCache is used when no cache backend is configured.
type noopExposureCache struct{}

func (noopExposureCache) GetExposure(context.Context, string, string) (*domain.ExposureReport, int64, bool) {
	return nil, -1, false
}
func (noopExposureCache) SetExposure(context.Context, string, string, int64, domain.ExposureReport) {}
func (noopExposureCache) InvalidateTenant(context.Context, string)                                 {}

func cacheOrNoop(cache portsrepo.ExposureCache) portsrepo.ExposureCache {
	if cache == nil {
		return noopExposureCache{}
	}
	return cache
}
