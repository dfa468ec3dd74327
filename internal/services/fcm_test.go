package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPickupMulticast(t *testing.T) {
	tokens := []string{"tok-1", "tok-2"}
	msg := newPickupMulticast(tokens, "entry-1", "hazardous", "high")

	assert.Equal(t, tokens, msg.Tokens)
	require.NotNil(t, msg.Notification)
	assert.Equal(t, "New Pickup Available!", msg.Notification.Title)
	assert.Equal(t, "A hazardous waste report (high risk) is waiting for pickup.", msg.Notification.Body)
	assert.Equal(t, map[string]string{
		"type":       "new_pickup",
		"entry_id":   "entry-1",
		"category":   "hazardous",
		"risk_level": "high",
	}, msg.Data)
	require.NotNil(t, msg.Android)
	assert.Equal(t, "high", msg.Android.Priority)
	require.NotNil(t, msg.APNS)
}

func TestPickupCollectedMessage(t *testing.T) {
	msg := pickupCollectedMessage("tok-1", "entry-1")

	assert.Equal(t, "tok-1", msg.Token)
	require.NotNil(t, msg.Notification)
	assert.Equal(t, "Pickup Collected", msg.Notification.Title)
	assert.Equal(t, map[string]string{
		"type":     "pickup_collected",
		"entry_id": "entry-1",
	}, msg.Data)
	require.NotNil(t, msg.Android)
	assert.Equal(t, "high", msg.Android.Priority)
	require.NotNil(t, msg.APNS)
}
