package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"listing-analytics/config"
	"listing-analytics/utils"
)

// Strategy selects how a connection is acquired
type Strategy int

const (
	// StrategyImmediate dials once and uses whatever it gets
	StrategyImmediate Strategy = iota
	// StrategyWaitForPrimary retries until the node reports the primary role
	StrategyWaitForPrimary
)

// ParseStrategy maps a config value to a Strategy
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case config.StrategyImmediate:
		return StrategyImmediate, nil
	case config.StrategyWaitForPrimary:
		return StrategyWaitForPrimary, nil
	}
	return StrategyImmediate, errors.Errorf("unknown connect strategy %q", s)
}

func (s Strategy) String() string {
	if s == StrategyWaitForPrimary {
		return config.StrategyWaitForPrimary
	}
	return config.StrategyImmediate
}

// ErrNotPrimary is returned by an attempt whose node is not the primary yet
var ErrNotPrimary = errors.New("node is not primary")

// DialFunc opens a new connection
type DialFunc func(ctx context.Context) (Connection, error)

// AcquireOptions controls connection acquisition
type AcquireOptions struct {
	Strategy   Strategy
	MaxRetries int           // total attempts when waiting for a primary
	RetryDelay time.Duration // fixed delay between attempts
}

// Acquire opens a connection according to opts. With StrategyWaitForPrimary
// every attempt dials and checks the replication role; dial errors, status
// errors and secondary answers all count as "not ready yet". A connection
// that is not accepted is closed before the next attempt.
func Acquire(ctx context.Context, dial DialFunc, opts AcquireOptions, logger *utils.Logger) (Connection, error) {
	if opts.Strategy == StrategyImmediate {
		conn, err := dial(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "connect")
		}
		return conn, nil
	}

	var accepted Connection
	err := utils.Retry(ctx, opts.MaxRetries, opts.RetryDelay, func(attempt int) error {
		logger.Debug("Connection attempt %d/%d", attempt, opts.MaxRetries)

		conn, err := dial(ctx)
		if err != nil {
			return errors.Wrap(err, "connect")
		}

		primary, err := conn.IsPrimary(ctx)
		if err != nil {
			_ = conn.Close(ctx)
			return errors.Wrap(err, "replication status")
		}
		if !primary {
			_ = conn.Close(ctx)
			return ErrNotPrimary
		}

		accepted = conn
		return nil
	}, logger)
	if err != nil {
		return nil, errors.Wrap(err, "waiting for primary")
	}

	logger.Info("Connected to primary")
	return accepted, nil
}
