package notifier

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/league-watcher/internal/league"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, leagues []league.League) error {
	args := m.Called(ctx, leagues)
	return args.Error(0) //nolint:wrapcheck
}

func TestMultiContinuesPastFailures(t *testing.T) {
	t.Parallel()

	leagues := []league.League{{Name: "Friday Coed"}}
	boom := errors.New("chat down")

	first := &mockNotifier{}
	first.On("Notify", mock.Anything, leagues).Return(boom).Once()
	second := &mockNotifier{}
	second.On("Notify", mock.Anything, leagues).Return(nil).Once()

	m := NewMulti(nil, Named{Name: "telegram", Notifier: first}, Named{Name: "console", Notifier: second}, Named{Name: "nil"})
	require.Equal(t, 2, m.Len())

	err := m.Notify(context.Background(), leagues)
	require.ErrorIs(t, err, boom)
	require.ErrorContains(t, err, "telegram")
	first.AssertExpectations(t)
	second.AssertExpectations(t)
}

func TestMultiEmpty(t *testing.T) {
	t.Parallel()
	require.NoError(t, NewMulti(nil).Notify(context.Background(), nil))
}
