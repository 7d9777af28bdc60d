package events

import (
	"crypto/hmac"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stitchtherapy/models"
)

func TestBusFansOutToAllSubscribers(t *testing.T) {
	bus := NewBus()

	var first, second []string
	bus.Subscribe(func(e models.DomainEvent) { first = append(first, e.Type) })
	bus.Subscribe(func(e models.DomainEvent) { second = append(second, e.Type) })

	bus.Publish(models.EventBookingCreated, map[string]any{"bookingId": "b1"})
	bus.Publish(models.EventBookingUpdated, map[string]any{"bookingId": "b1"})

	assert.Equal(t, []string{models.EventBookingCreated, models.EventBookingUpdated}, first)
	assert.Equal(t, first, second)
}

func TestBusStampsEnvelope(t *testing.T) {
	bus := NewBus()

	var got models.DomainEvent
	bus.Subscribe(func(e models.DomainEvent) { got = e })

	bus.Publish(models.EventBookingPaymentVerified, map[string]any{"bookingId": "b1"})

	require.NotEmpty(t, got.ID)
	assert.False(t, got.OccurredAt.IsZero())
	assert.Equal(t, "b1", got.Payload["bookingId"])
}

func TestSignIsDeterministicAndKeyed(t *testing.T) {
	body := []byte(`{"event":"booking.created"}`)

	a := Sign("secret-a", "1700000000", body)
	b := Sign("secret-a", "1700000000", body)
	c := Sign("secret-b", "1700000000", body)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	raw, err := hex.DecodeString(a)
	require.NoError(t, err)
	assert.Len(t, raw, 32)

	// Verification on the receiver side matches.
	expected, _ := hex.DecodeString(Sign("secret-a", "1700000000", body))
	assert.True(t, hmac.Equal(raw, expected))
}

func TestSignCoversTimestamp(t *testing.T) {
	body := []byte(`{}`)
	assert.NotEqual(t, Sign("s", "1", body), Sign("s", "2", body))
}
