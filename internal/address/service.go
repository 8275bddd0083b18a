package address

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

var ErrInvalidAddress = errors.New("invalid address")

type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]Address, error)
	Add(ctx context.Context, addr *Address) (*Address, error)
	SetDefault(ctx context.Context, userID, id uuid.UUID) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]Address, error) {
	addresses, err := s.repo.List(ctx, userID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to list addresses")
		return nil, fmt.Errorf("service: failed to list addresses: %w", err)
	}
	return addresses, nil
}

func (s *service) Add(ctx context.Context, addr *Address) (*Address, error) {
	if addr.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidAddress)
	}
	addr.Label = strings.TrimSpace(addr.Label)
	addr.Name = strings.TrimSpace(addr.Name)
	addr.Address = strings.TrimSpace(addr.Address)
	addr.City = strings.TrimSpace(addr.City)
	if addr.Name == "" || addr.Address == "" || addr.City == "" {
		return nil, fmt.Errorf("%w: name, address and city are required", ErrInvalidAddress)
	}

	if err := s.repo.Add(ctx, addr); err != nil {
		log.Error().Err(err).Stringer("user_id", addr.UserID).Msg("service: failed to add address")
		return nil, fmt.Errorf("service: failed to add address: %w", err)
	}

	log.Info().Stringer("user_id", addr.UserID).Stringer("address_id", addr.ID).Bool("is_default", addr.IsDefault).Msg("service: address added")
	return addr, nil
}

func (s *service) SetDefault(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.repo.SetDefault(ctx, userID, id); err != nil {
		if errors.Is(err, ErrAddressNotFound) {
			return ErrAddressNotFound
		}
		log.Error().Err(err).Stringer("user_id", userID).Stringer("address_id", id).Msg("service: failed to set default address")
		return fmt.Errorf("service: failed to set default address: %w", err)
	}
	return nil
}

func (s *service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		switch {
		case errors.Is(err, ErrAddressNotFound):
			return ErrAddressNotFound
		case errors.Is(err, ErrDefaultAddressInUse):
			log.Warn().Stringer("user_id", userID).Stringer("address_id", id).Msg("service: refused to delete default address")
			return ErrDefaultAddressInUse
		}
		log.Error().Err(err).Stringer("address_id", id).Msg("service: failed to delete address")
		return fmt.Errorf("service: failed to delete address: %w", err)
	}
	return nil
}
