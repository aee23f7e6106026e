// Package delivery sends finished trend reports to their destinations.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/healthtrends/internal/modules/trends"
)

// Transport delivers a report to one destination.
type Transport interface {
	Name() string
	Send(ctx context.Context, report *trends.Report) error
}

// Dispatcher fans a report out to every configured transport.
type Dispatcher struct {
	transports []Transport
	log        zerolog.Logger
}

// NewDispatcher creates a dispatcher over the given transports
func NewDispatcher(log zerolog.Logger, transports ...Transport) *Dispatcher {
	return &Dispatcher{
		transports: transports,
		log:        log.With().Str("component", "delivery").Logger(),
	}
}

// Names lists the configured transports in delivery order.
func (d *Dispatcher) Names() []string {
	names := make([]string, 0, len(d.transports))
	for _, t := range d.transports {
		names = append(names, t.Name())
	}
	return names
}

// Send delivers the report to every transport, continuing past failures.
// The returned error joins every transport failure.
func (d *Dispatcher) Send(ctx context.Context, report *trends.Report) error {
	if len(d.transports) == 0 {
		d.log.Warn().Msg("No delivery transports configured, report not sent")
		return nil
	}

	var errs []error
	for _, t := range d.transports {
		start := time.Now()
		err := t.Send(ctx, report)
		if err != nil {
			d.log.Error().Err(err).Str("transport", t.Name()).Msg("Report delivery failed")
			errs = append(errs, fmt.Errorf("%s: %w", t.Name(), err))
			continue
		}
		d.log.Info().
			Str("transport", t.Name()).
			Dur("duration", time.Since(start)).
			Bool("insufficient", report.Insufficient).
			Msg("Report delivered")
	}
	return errors.Join(errs...)
}
