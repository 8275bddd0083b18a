package address_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/GabrielMhv/D-Market-sub000/internal/address"
)

type MockAddressRepository struct {
	mock.Mock
}

func (m *MockAddressRepository) List(ctx context.Context, userID uuid.UUID) ([]address.Address, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]address.Address), args.Error(1)
}

func (m *MockAddressRepository) Add(ctx context.Context, addr *address.Address) error {
	args := m.Called(ctx, addr)
	return args.Error(0)
}

func (m *MockAddressRepository) SetDefault(ctx context.Context, userID, id uuid.UUID) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *MockAddressRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func TestAddressService_Add(t *testing.T) {
	userID := uuid.Must(uuid.NewV4())

	tests := []struct {
		name      string
		input     address.Address
		repoErr   error
		wantErrIs error
	}{
		{
			name:  "success",
			input: address.Address{UserID: userID, Label: " Home ", Name: "Ama", Phone: "90000000", Address: "12 rue", City: "Lomé"},
		},
		{
			name:      "missing_city",
			input:     address.Address{UserID: userID, Name: "Ama", Address: "12 rue", City: "  "},
			wantErrIs: address.ErrInvalidAddress,
		},
		{
			name:      "missing_user",
			input:     address.Address{Name: "Ama", Address: "12 rue", City: "Lomé"},
			wantErrIs: address.ErrInvalidAddress,
		},
		{
			name:    "repository_failure",
			input:   address.Address{UserID: userID, Name: "Ama", Address: "12 rue", City: "Lomé"},
			repoErr: errors.New("deadlock detected"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockAddressRepository)
			svc := address.NewService(repo)

			if tt.wantErrIs == nil {
				repo.On("Add", mock.Anything, mock.AnythingOfType("*address.Address")).Return(tt.repoErr).Once()
			}

			input := tt.input
			got, err := svc.Add(context.Background(), &input)

			switch {
			case tt.wantErrIs != nil:
				assert.ErrorIs(t, err, tt.wantErrIs)
				repo.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
			case tt.repoErr != nil:
				assert.ErrorIs(t, err, tt.repoErr)
			default:
				require.NoError(t, err)
				assert.Equal(t, "Home", got.Label)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestAddressService_Delete(t *testing.T) {
	userID := uuid.Must(uuid.NewV4())
	id := uuid.Must(uuid.NewV4())

	for name, repoErr := range map[string]error{
		"default_in_use": address.ErrDefaultAddressInUse,
		"not_found":      address.ErrAddressNotFound,
	} {
		t.Run(name, func(t *testing.T) {
			repo := new(MockAddressRepository)
			repo.On("Delete", mock.Anything, userID, id).Return(repoErr).Once()

			err := address.NewService(repo).Delete(context.Background(), userID, id)
			assert.ErrorIs(t, err, repoErr)
			repo.AssertExpectations(t)
		})
	}
}

func TestAddressService_SetDefault(t *testing.T) {
	userID := uuid.Must(uuid.NewV4())
	id := uuid.Must(uuid.NewV4())

	repo := new(MockAddressRepository)
	repo.On("SetDefault", mock.Anything, userID, id).Return(nil).Once()
	require.NoError(t, address.NewService(repo).SetDefault(context.Background(), userID, id))

	other := uuid.Must(uuid.NewV4())
	repo.On("SetDefault", mock.Anything, userID, other).Return(address.ErrAddressNotFound).Once()
	assert.ErrorIs(t, address.NewService(repo).SetDefault(context.Background(), userID, other), address.ErrAddressNotFound)
	repo.AssertExpectations(t)
}
