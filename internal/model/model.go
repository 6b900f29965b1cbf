package model

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Model struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Shortcode struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name" validate:"required,min=2,max=120"`
	Shortcode      string    `json:"shortcode" validate:"required,min=4,max=20"`
	Type           string    `json:"type" validate:"required,oneof=TILL PAYBILL"`
	ConsumerKey    string    `json:"consumer_key" validate:"required"`
	ConsumerSecret string    `json:"-" validate:"required"`
	ResponseType   string    `json:"response_type" validate:"required,oneof=Completed Cancelled"`
	WebhookToken   string    `json:"-"`
	IsActive       bool      `json:"is_active"`
	Model
}

// ValidationRule holds the per-shortcode acceptance policy applied to
// validation callbacks. Amounts are in minor units (cents).
type ValidationRule struct {
	ID             uuid.UUID `json:"id"`
	ShortcodeID    uuid.UUID `json:"shortcode_id"`
	MinAmount      *int64    `json:"min_amount"`
	MaxAmount      *int64    `json:"max_amount"`
	RequireBillRef bool      `json:"require_billref"`
	BillRefRegex   *string   `json:"billref_regex"`
	Model
}

// IncomingEvent is the append-only log of every webhook request that passed
// the token gate, accepted or not.
type IncomingEvent struct {
	ID             uuid.UUID       `json:"id"`
	ShortcodeID    uuid.UUID       `json:"shortcode_id"`
	EventType      string          `json:"event_type" validate:"required,oneof=VALIDATION CONFIRMATION"`
	IdempotencyKey string          `json:"idempotency_key"`
	Payload        json.RawMessage `json:"payload"`
	Headers        json.RawMessage `json:"headers,omitempty"`
	SourceIP       string          `json:"source_ip,omitempty"`
	ReceivedAt     time.Time       `json:"received_at"`
}

type Transaction struct {
	ID            uuid.UUID       `json:"id"`
	ShortcodeID   uuid.UUID       `json:"shortcode_id"`
	TransID       *string         `json:"trans_id"`
	TransTime     *time.Time      `json:"trans_time"`
	Amount        *int64          `json:"amount"`
	Msisdn        *string         `json:"msisdn"`
	BillRefNumber *string         `json:"bill_ref_number"`
	FirstName     *string         `json:"first_name"`
	MiddleName    *string         `json:"middle_name"`
	LastName      *string         `json:"last_name"`
	Status        string          `json:"status" validate:"required,oneof=PENDING CONFIRMED REJECTED"`
	RawPayload    json.RawMessage `json:"raw_last_payload,omitempty"`
	Model
}

type OutboxEvent struct {
	ID            int64           `json:"id"`
	EventType     string          `json:"event_type" validate:"required"`
	Payload       json.RawMessage `json:"payload" validate:"required"`
	PartitionKey  string          `json:"partition_key" validate:"required"`
	CorrelationID string          `json:"correlation_id"`
	Status        string          `json:"status" validate:"required,oneof=pending processed failed"`
	RetryCount    int             `json:"retry_count" validate:"gte=0"`
	LastError     string          `json:"last_error,omitempty"`
	Model
}

// NewWebhookToken returns 64 hex chars, URL-safe without encoding.
func NewWebhookToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate webhook token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// MakeIdempotencyKey derives a stable key for a callback payload: the
// transaction id when Daraja sent one, otherwise a digest of the canonical
// JSON encoding (encoding/json sorts map keys, so re-marshalling the decoded
// payload is canonical).
func MakeIdempotencyKey(payload map[string]any) string {
	if transID := PayloadString(payload, "TransID", "TransactionID", "TransId"); transID != "" {
		return transID
	}
	normalized, err := json.Marshal(payload)
	if err != nil {
		normalized = nil
	}
	sum := sha256.Sum256(normalized)
	return hex.EncodeToString(sum[:])
}

// PayloadString returns the first present key rendered as a string. Daraja
// is inconsistent about whether numeric fields arrive as strings or numbers.
func PayloadString(payload map[string]any, keys ...string) string {
	for _, key := range keys {
		value, ok := payload[key]
		if !ok || value == nil {
			continue
		}
		switch v := value.(type) {
		case string:
			if v != "" {
				return v
			}
		case json.Number:
			return v.String()
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		default:
			return fmt.Sprintf("%v", v)
		}
	}
	return ""
}

// ParseTransTime parses Daraja's YYYYMMDDHHMMSS timestamps. Anything else
// returns nil, matching the lenient treatment of callback payloads.
func ParseTransTime(value string) *time.Time {
	if len(value) != 14 {
		return nil
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return nil
		}
	}
	t, err := time.ParseInLocation("20060102150405", value, time.Local)
	if err != nil {
		return nil
	}
	return &t
}

// ParseAmountMinor converts a decimal amount string ("100", "100.5",
// "100.50") into minor units. Returns nil for anything unparseable.
func ParseAmountMinor(value string) *int64 {
	if value == "" {
		return nil
	}
	neg := false
	if strings.HasPrefix(value, "-") {
		neg = true
		value = value[1:]
	}
	whole, frac := value, ""
	if i := strings.IndexByte(value, '.'); i >= 0 {
		whole, frac = value[:i], value[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	switch len(frac) {
	case 0:
		frac = "00"
	case 1:
		frac += "0"
	case 2:
	default:
		frac = frac[:2]
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return nil
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return nil
	}
	total := units*100 + cents
	if neg {
		total = -total
	}
	return &total
}
