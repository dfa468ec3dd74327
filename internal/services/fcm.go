package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// FCMService handles Firebase Cloud Messaging
type FCMService struct {
	client *messaging.Client
}

// NewFCMService creates a new FCM service instance from a credentials file
func NewFCMService(credentialsFile string) (*FCMService, error) {
	ctx := context.Background()

	opt := option.WithCredentialsFile(credentialsFile)
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting messaging client: %w", err)
	}

	return &FCMService{client: client}, nil
}

// NewFCMServiceFromBase64 creates a new FCM service instance from base64-encoded credentials
// This is useful for cloud deployments (Railway, Fly.io, Render) where you can't upload files easily
func NewFCMServiceFromBase64(credentialsBase64 string) (*FCMService, error) {
	ctx := context.Background()

	credentialsJSON, err := base64.StdEncoding.DecodeString(credentialsBase64)
	if err != nil {
		return nil, fmt.Errorf("error decoding base64 credentials: %w", err)
	}

	opt := option.WithCredentialsJSON(credentialsJSON)
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting messaging client: %w", err)
	}

	return &FCMService{client: client}, nil
}

// highPriorityAndroid and defaultAPNS keep pushes consistent across message types.
func highPriorityAndroid() *messaging.AndroidConfig {
	return &messaging.AndroidConfig{Priority: "high"}
}

func defaultAPNS() *messaging.APNSConfig {
	return &messaging.APNSConfig{
		Payload: &messaging.APNSPayload{
			Aps: &messaging.Aps{
				ContentAvailable: true,
				Sound:            "default",
			},
		},
	}
}

// newPickupMulticast builds the push fanned out to every driver when a
// pickup is reported.
func newPickupMulticast(tokens []string, entryID, category, riskLevel string) *messaging.MulticastMessage {
	return &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: "New Pickup Available!",
			Body:  fmt.Sprintf("A %s waste report (%s risk) is waiting for pickup.", category, riskLevel),
		},
		Data: map[string]string{
			"type":       "new_pickup",
			"entry_id":   entryID,
			"category":   category,
			"risk_level": riskLevel,
		},
		Android: highPriorityAndroid(),
		APNS:    defaultAPNS(),
	}
}

// pickupCollectedMessage builds the push sent to one of the reporter's devices.
func pickupCollectedMessage(token, entryID string) *messaging.Message {
	return &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: "Pickup Collected",
			Body:  "Your waste report has been collected. Thank you for keeping the city clean!",
		},
		Data: map[string]string{
			"type":     "pickup_collected",
			"entry_id": entryID,
		},
		Android: highPriorityAndroid(),
		APNS:    defaultAPNS(),
	}
}

// SendNewPickupNotification fans a new-pickup push out to the given driver tokens
func (s *FCMService) SendNewPickupNotification(tokens []string, entryID, category, riskLevel string) error {
	ctx := context.Background()

	response, err := s.client.SendEachForMulticast(ctx, newPickupMulticast(tokens, entryID, category, riskLevel))
	if err != nil {
		return fmt.Errorf("error sending multicast message: %w", err)
	}

	log.Printf("✅ New pickup push sent: %d success, %d failures", response.SuccessCount, response.FailureCount)
	return nil
}

// SendPickupCollectedNotification tells the reporter that their waste was collected
func (s *FCMService) SendPickupCollectedNotification(token, entryID string) error {
	ctx := context.Background()

	response, err := s.client.Send(ctx, pickupCollectedMessage(token, entryID))
	if err != nil {
		return fmt.Errorf("error sending FCM message: %w", err)
	}

	log.Printf("✅ FCM notification sent successfully: %s", response)
	return nil
}
