package runtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"chat-desk/contract"
	cderrors "chat-desk/errors"
)

const restartDelay = 200 * time.Millisecond

// Supervisor runs background workers in their own goroutines, recovers
// their panics and restarts them until the context is canceled. A crash
// in one worker never takes down the others or the supervisor itself.
type Supervisor struct {
	log     *slog.Logger
	wg      sync.WaitGroup
	workers []contract.Worker
}

func NewSupervisor(log *slog.Logger) *Supervisor {
	return &Supervisor{log: log}
}

func (s *Supervisor) Add(workers ...contract.Worker) *Supervisor {
	s.workers = append(s.workers, workers...)
	return s
}

// Run starts every added worker and blocks until all of them have
// stopped. Cancel the context to stop the lot.
func (s *Supervisor) Run(ctx context.Context) {
	for _, worker := range s.workers {
		s.start(ctx, worker)
	}
	s.wg.Wait()
}

func (s *Supervisor) start(ctx context.Context, worker contract.Worker) {
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		for {
			if ctx.Err() != nil {
				s.log.Info("worker stopped", "name", worker.Name())
				return
			}

			err := func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						s.log.Error("worker panic recovered", "name", worker.Name(), "panic", r)
						err = cderrors.ErrWorkerPanic
					}
				}()
				return worker.Run(ctx)
			}()

			if err == nil {
				// Finished for good, never restart.
				s.log.Info("worker finished", "name", worker.Name())
				return
			}
			if ctx.Err() != nil {
				s.log.Info("worker stopped", "name", worker.Name())
				return
			}

			s.log.Warn("worker crashed, restarting", "name", worker.Name(), "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(restartDelay):
			}
		}
	}()
}
