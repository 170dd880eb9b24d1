package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/MikeMehr/patient-intake-2-sub002/domain"
)

// PurgeServiceImpl implements domain.PurgeService. The periodic sweep is
// owned explicitly by the composition root through Start/Stop; there is
// no lazily-latched global. Each sweep is a single idempotent UPDATE, so
// overlapping runs are harmless.
type PurgeServiceImpl struct {
	invRepo     domain.InvitationRepository
	sessionRepo domain.SessionRepository
	interval    time.Duration

	mu      sync.Mutex
	stop    chan struct{}
	done    chan struct{}
}

// ErrPurgeAlreadyStarted is returned by Start when the sweep is running.
var ErrPurgeAlreadyStarted = errors.New("purge sweep already started")

// NewPurgeService creates a new purge service
func NewPurgeService(invRepo domain.InvitationRepository, sessionRepo domain.SessionRepository, interval time.Duration) domain.PurgeService {
	return &PurgeServiceImpl{
		invRepo:     invRepo,
		sessionRepo: sessionRepo,
		interval:    interval,
	}
}

// ClearExpired implements domain.PurgeService. It purges every summary
// past its TTL and sweeps expired session records, returning the number
// of invitations purged.
func (s *PurgeServiceImpl) ClearExpired(ctx context.Context) (int64, error) {
	now := time.Now()
	purged, err := s.invRepo.ClearExpiredSummaries(ctx, now)
	if err != nil {
		return 0, err
	}
	if _, err := s.sessionRepo.DeleteExpired(ctx, now); err != nil {
		return purged, err
	}
	return purged, nil
}

// Clear implements domain.PurgeService
func (s *PurgeServiceImpl) Clear(ctx context.Context, invitationID string) error {
	return s.invRepo.ClearSummaries(ctx, invitationID, time.Now())
}

// Start implements domain.PurgeService
func (s *PurgeServiceImpl) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return ErrPurgeAlreadyStarted
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go s.run(s.stop, s.done)
	return nil
}

// Stop implements domain.PurgeService. It blocks until the sweep
// goroutine has exited and is safe to call when never started.
func (s *PurgeServiceImpl) Stop() {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (s *PurgeServiceImpl) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			purged, err := s.ClearExpired(ctx)
			cancel()
			if err != nil {
				log.Printf("summary purge sweep failed: %v", err)
				continue
			}
			if purged > 0 {
				log.Printf("summary purge: cleared %d invitation(s)", purged)
			}
		}
	}
}
