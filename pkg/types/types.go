package types

import "encoding/json"

type CreateShortcodeRequest struct {
	Name           string `json:"name" validate:"required,min=2,max=120"`
	Shortcode      string `json:"shortcode" validate:"required,numeric,min=4,max=20"`
	Type           string `json:"type" validate:"required,oneof=TILL PAYBILL"`
	ConsumerKey    string `json:"consumer_key" validate:"required,max=200"`
	ConsumerSecret string `json:"consumer_secret" validate:"required,max=200"`
	ResponseType   string `json:"response_type" validate:"omitempty,oneof=Completed Cancelled"`
	IsActive       *bool  `json:"is_active,omitempty"`
}

type UpdateShortcodeRequest struct {
	Name           string `json:"name" validate:"required,min=2,max=120"`
	Shortcode      string `json:"shortcode" validate:"required,numeric,min=4,max=20"`
	Type           string `json:"type" validate:"required,oneof=TILL PAYBILL"`
	ConsumerKey    string `json:"consumer_key" validate:"required,max=200"`
	ConsumerSecret string `json:"consumer_secret" validate:"omitempty,max=200"`
	ResponseType   string `json:"response_type" validate:"required,oneof=Completed Cancelled"`
	IsActive       *bool  `json:"is_active" validate:"required"`
}

type UpsertRuleRequest struct {
	MinAmount      *int64  `json:"min_amount" validate:"omitempty,gte=0"`
	MaxAmount      *int64  `json:"max_amount" validate:"omitempty,gte=0"`
	RequireBillRef bool    `json:"require_billref"`
	BillRefRegex   *string `json:"billref_regex" validate:"omitempty,max=200"`
}

type SimulateRequest struct {
	Amount        int64  `json:"amount" validate:"omitempty,gte=1"`
	Msisdn        string `json:"msisdn" validate:"omitempty,numeric,min=10,max=15"`
	BillRefNumber string `json:"bill_ref" validate:"omitempty,max=80"`
}

// WebhookURLs are the derived callback endpoints for a shortcode, as
// registered with Daraja.
type WebhookURLs struct {
	ValidationURL   string `json:"validation_url"`
	ConfirmationURL string `json:"confirmation_url"`
}

// ConfirmationReceived is the outbox/Kafka payload carrying a confirmation
// callback from the webhook handler to the worker.
type ConfirmationReceived struct {
	ShortcodeID    string          `json:"shortcode_id"`
	IdempotencyKey string          `json:"idempotency_key"`
	Payload        json.RawMessage `json:"payload"`
}
