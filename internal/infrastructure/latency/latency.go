// Package latency emulates remote round trips for the in-process services.
package latency

import (
	"context"
	"time"

	"github.com/opsdesk/records-dashboard/internal/core/ports"
)

// Defaults are the per-operation delays applied at scale 1.
var Defaults = map[ports.Operation]time.Duration{
	ports.OpLogin:          800 * time.Millisecond,
	ports.OpLogout:         500 * time.Millisecond,
	ports.OpListIdentities: 800 * time.Millisecond,
	ports.OpAddIdentity:    800 * time.Millisecond,
	ports.OpRemoveIdentity: 800 * time.Millisecond,
	ports.OpListRecords:    800 * time.Millisecond,
	ports.OpGetRecord:      500 * time.Millisecond,
	ports.OpUpdateStatus:   600 * time.Millisecond,
	ports.OpCreateRecord:   700 * time.Millisecond,
	ports.OpRecordCounts:   900 * time.Millisecond,
}

// Simulator sleeps for the configured delay of each operation.
type Simulator struct {
	delays map[ports.Operation]time.Duration
}

// NewSimulator scales Defaults by scale. A zero scale disables every delay.
func NewSimulator(scale float64) *Simulator {
	delays := make(map[ports.Operation]time.Duration, len(Defaults))
	for op, d := range Defaults {
		delays[op] = time.Duration(float64(d) * scale)
	}
	return &Simulator{delays: delays}
}

// Wait blocks for the delay of op or until ctx is done.
func (s *Simulator) Wait(ctx context.Context, op ports.Operation) error {
	d := s.delays[op]
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Nop never waits.
type Nop struct{}

func (Nop) Wait(ctx context.Context, _ ports.Operation) error {
	return ctx.Err()
}
