package channels

import (
	"context"

	"github.com/rs/zerolog"

	"robux-topup-backend/internal/cache"
	"robux-topup-backend/internal/tripay"
	"robux-topup-backend/pkg/log"
)

type Lister interface {
	ListChannels(ctx context.Context) ([]tripay.Channel, error)
}

// Service serves the gateway's channel list through a cache.
type Service struct {
	gateway Lister
	cache   cache.Store[[]tripay.Channel]
	logger  *zerolog.Logger
}

func NewService(gateway Lister, store cache.Store[[]tripay.Channel]) *Service {
	l := log.GetLogger()
	return &Service{gateway: gateway, cache: store, logger: &l}
}

// List returns active channels. A cache read or write failure is logged and
// falls through to the gateway.
func (s *Service) List(ctx context.Context) ([]tripay.Channel, error) {
	cached, ok, err := s.cache.Get(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("channel cache read failed")
	}
	if ok {
		return cached, nil
	}

	all, err := s.gateway.ListChannels(ctx)
	if err != nil {
		return nil, err
	}

	active := make([]tripay.Channel, 0, len(all))
	for _, ch := range all {
		if ch.Active {
			active = append(active, ch)
		}
	}

	if err := s.cache.Set(ctx, active); err != nil {
		s.logger.Warn().Err(err).Msg("channel cache write failed")
	}
	return active, nil
}

// Refresh drops the cached list so the next List hits the gateway.
func (s *Service) Refresh(ctx context.Context) error {
	return s.cache.Reset(ctx)
}
