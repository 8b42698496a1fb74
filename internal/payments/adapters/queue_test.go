package adapters

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-shop/internal/payments/application"
	"go-shop/internal/payments/ports"
	"go-shop/pkg/errors"
	"go-shop/pkg/events"
	"go-shop/pkg/logger"
	"go-shop/pkg/rabbitmq"
)

type stubPlacer struct {
	err    error
	placed []ports.PlacedOrder
}

func (s *stubPlacer) PlaceFromPayment(ctx context.Context, order ports.PlacedOrder) error {
	if s.err != nil {
		return s.err
	}
	s.placed = append(s.placed, order)
	return nil
}

func newQueueConsumer(placer *stubPlacer) *PaymentConsumer {
	uc := application.NewPaymentUseCase(nil, nil, nil, placer, nil,
		logger.New("payments-test", "error", "console"))
	return &PaymentConsumer{useCase: uc}
}

func succeededEventBody(t *testing.T) []byte {
	t.Helper()
	event := events.NewPaymentSucceededEvent(events.PaymentSucceededPayload{
		PaymentID:       "pi_1",
		UserID:          "7",
		ClerkID:         "clerk_1",
		OrderItems:      `[{"product":1,"name":"Apples","price":"2.50","quantity":2,"image":""}]`,
		ShippingAddress: `{"fullName":"Ann","street":"1 Main","city":"Town","state":"TS","zip":"12345","phone":""}`,
		TotalPrice:      "15.40",
	}, "trace-1")
	body, err := json.Marshal(event)
	require.NoError(t, err)
	return body
}

func isPermanent(err error) bool {
	var perm *rabbitmq.PermanentError
	return stderrors.As(err, &perm)
}

func TestConsumerHandleSuccess(t *testing.T) {
	placer := &stubPlacer{}
	consumer := newQueueConsumer(placer)

	require.NoError(t, consumer.handle(context.Background(), succeededEventBody(t)))
	require.Len(t, placer.placed, 1)
	assert.Equal(t, "pi_1", placer.placed[0].PaymentID)
	assert.Equal(t, uint(7), placer.placed[0].UserID)
}

func TestConsumerDeadLettersMalformedEvent(t *testing.T) {
	consumer := newQueueConsumer(&stubPlacer{})

	err := consumer.handle(context.Background(), []byte("{not json"))
	require.Error(t, err)
	assert.True(t, isPermanent(err), "a malformed event must never requeue")
	assert.True(t, errors.Is(err, errors.CodeValidation))
}

func TestConsumerDeadLettersTerminalFailures(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"out of stock", errors.NewOutOfStock("Apples")},
		{"dangling product", errors.NewNotFound("product", 1)},
		{"invalid order", errors.NewValidation("order must contain at least one item", nil)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			consumer := newQueueConsumer(&stubPlacer{err: tc.err})

			err := consumer.handle(context.Background(), succeededEventBody(t))
			require.Error(t, err)
			assert.True(t, isPermanent(err), "terminal failures must never requeue")
		})
	}
}

func TestConsumerRetriesTransientFailures(t *testing.T) {
	placer := &stubPlacer{err: errors.NewInternal("database down", nil)}
	consumer := newQueueConsumer(placer)

	err := consumer.handle(context.Background(), succeededEventBody(t))
	require.Error(t, err)
	assert.False(t, isPermanent(err), "internal failures must stay retryable")
}
