package visitlink

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/clinicworks/visitlink/pkg/constants"
	"github.com/clinicworks/visitlink/pkg/identity"
	"github.com/clinicworks/visitlink/pkg/logging"
)

// Option configures a Reconciler.
type Option func(*config) error

type config struct {
	decider   identity.Decider
	threshold float64
	tolerance decimal.Decimal
	logger    *zerolog.Logger
}

func defaultConfig() *config {
	return &config{
		threshold: constants.DefaultSimilarityThreshold,
		tolerance: decimal.New(constants.DefaultToleranceCents, -2),
		logger:    logging.Default(),
	}
}

// WithDecider sets the operator decision port used for close-match review.
// Without one, close matches stay ambiguous and land in the unmatched
// partition as pending review.
func WithDecider(d identity.Decider) Option {
	return func(c *config) error {
		c.decider = d
		return nil
	}
}

// WithThreshold sets the minimum name-similarity score for a close match.
func WithThreshold(threshold float64) Option {
	return func(c *config) error {
		if threshold <= 0 || threshold > 1 {
			return fmt.Errorf("similarity threshold must be in (0, 1], got %v", threshold)
		}
		c.threshold = threshold
		return nil
	}
}

// WithTolerance sets the money tolerance for the financial comparison.
func WithTolerance(tolerance decimal.Decimal) Option {
	return func(c *config) error {
		if tolerance.IsNegative() {
			return fmt.Errorf("tolerance cannot be negative, got %s", tolerance)
		}
		c.tolerance = tolerance
		return nil
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *config) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		c.logger = logger
		return nil
	}
}
