package bus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testCommand struct {
	invalid bool
}

func (c testCommand) Validate() error {
	if c.invalid {
		return errors.New("missing field")
	}
	return nil
}

func TestSendDispatchesToHandler(t *testing.T) {
	b := NewCommandBus()
	handled := false
	require.NoError(t, b.Register(testCommand{}, CommandHandlerFunc(
		func(ctx context.Context, cmd Command) error {
			handled = true
			return nil
		})))

	require.NoError(t, b.Send(context.Background(), testCommand{}))
	assert.True(t, handled)
}

func TestSendReturnsHandlerNotFound(t *testing.T) {
	b := NewCommandBus()
	err := b.Send(context.Background(), testCommand{})
	assert.ErrorIs(t, err, ErrHandlerNotFound)
}

func TestSendReturnsValidationFailed(t *testing.T) {
	b := NewCommandBus()
	require.NoError(t, b.Register(testCommand{}, CommandHandlerFunc(
		func(ctx context.Context, cmd Command) error { return nil })))

	err := b.Send(context.Background(), testCommand{invalid: true})
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestRegisterRejectsDuplicate(t *testing.T) {
	b := NewCommandBus()
	h := CommandHandlerFunc(func(ctx context.Context, cmd Command) error { return nil })
	require.NoError(t, b.Register(testCommand{}, h))
	assert.Error(t, b.Register(testCommand{}, h))
}

func TestMiddlewareWrapsRegisteredHandlers(t *testing.T) {
	b := NewCommandBus()
	var order []string
	b.Use(func(next CommandHandler) CommandHandler {
		return CommandHandlerFunc(func(ctx context.Context, cmd Command) error {
			order = append(order, "before")
			err := next.Handle(ctx, cmd)
			order = append(order, "after")
			return err
		})
	})
	require.NoError(t, b.Register(testCommand{}, CommandHandlerFunc(
		func(ctx context.Context, cmd Command) error {
			order = append(order, "handler")
			return nil
		})))

	require.NoError(t, b.Send(context.Background(), testCommand{}))
	assert.Equal(t, []string{"before", "handler", "after"}, order)
}

func TestLoggingMiddlewarePassesThroughError(t *testing.T) {
	b := NewCommandBus()
	b.Use(LoggingMiddleware(zap.NewNop()))
	want := errors.New("boom")
	require.NoError(t, b.Register(testCommand{}, CommandHandlerFunc(
		func(ctx context.Context, cmd Command) error { return want })))

	err := b.Send(context.Background(), testCommand{})
	assert.ErrorIs(t, err, want)
}
