package usecase

import (
	"context"
	"time"

	"github.com/TrueDMGDev/FintechFinalProject/internal/ports"
)

// Loops drives the two periodic fetch cycles (the main source group and the
// faster breaking group) over their scheduler drivers. Both loops share one
// pipeline and one fetch client; only the source group and interval differ.
type Loops struct {
	main     ports.Scheduler
	breaking ports.Scheduler

	runMain     func(time.Time)
	runBreaking func(time.Time)
}

// NewLoops wires the drivers with their cycle jobs.
func NewLoops(main, breaking ports.Scheduler, runMain, runBreaking func(time.Time)) *Loops {
	return &Loops{
		main:        main,
		breaking:    breaking,
		runMain:     runMain,
		runBreaking: runBreaking,
	}
}

// Start launches both loops.
func (l *Loops) Start(ctx context.Context) error {
	if l.main != nil && l.runMain != nil {
		if err := l.main.Start(ctx, l.runMain); err != nil {
			return err
		}
	}
	if l.breaking != nil && l.runBreaking != nil {
		if err := l.breaking.Start(ctx, l.runBreaking); err != nil {
			return err
		}
	}
	return nil
}

// Stop tears both loops down; stopping is cooperative, between cycles.
func (l *Loops) Stop(ctx context.Context) error {
	var firstErr error
	if l.main != nil {
		if err := l.main.Stop(ctx); err != nil {
			firstErr = err
		}
	}
	if l.breaking != nil {
		if err := l.breaking.Stop(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
