package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

const TopicUpdated = "settings:updated"

var ErrInvalidSettings = errors.New("invalid settings")

type Publisher interface {
	Publish(topic string, args ...interface{})
}

type Service interface {
	// Get never fails: read errors fall back to Defaults.
	Get(ctx context.Context) Settings
	Update(ctx context.Context, s Settings) (*Settings, error)
}

type service struct {
	repo     Repository
	events   Publisher
	validate *validator.Validate
}

func NewService(repo Repository, events Publisher) Service {
	return &service{repo: repo, events: events, validate: validator.New()}
}

func (s *service) Get(ctx context.Context) Settings {
	stored, err := s.repo.Get(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Debug().Msg("service: settings not stored yet, using defaults")
		} else {
			log.Warn().Err(err).Msg("service: failed to load settings, using defaults")
		}
		return Defaults()
	}
	return *stored
}

func (s *service) Update(ctx context.Context, in Settings) (*Settings, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}

	if err := s.repo.Upsert(ctx, &in); err != nil {
		log.Error().Err(err).Msg("service: failed to store settings")
		return nil, fmt.Errorf("service: failed to update settings: %w", err)
	}

	log.Info().Int64("delivery_fee", in.DeliveryFee).Msg("service: settings updated")
	s.events.Publish(TopicUpdated, in)

	return &in, nil
}
