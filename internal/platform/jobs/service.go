package jobs

import (
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Rebroadcaster re-delivers the current state of every live subscription.
type Rebroadcaster interface {
	Rebroadcast()
}

// Service runs the scheduled background work. The midnight job pushes a
// fresh snapshot to every subscriber so values derived from the calendar
// day, like the new-announcement highlight, roll over without a write.
type Service struct {
	cron *cron.Cron
	log  zerolog.Logger
}

func New(store Rebroadcaster, log zerolog.Logger) (*Service, error) {
	c := cron.New()
	_, err := c.AddFunc("@midnight", func() {
		log.Debug().Msg("midnight rebroadcast")
		store.Rebroadcast()
	})
	if err != nil {
		return nil, err
	}
	return &Service{cron: c, log: log}, nil
}

func (s *Service) Start() {
	s.cron.Start()
	s.log.Info().Msg("job scheduler started")
}

func (s *Service) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
