package transaction

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/okoapay/c2b-console/internal/model"
)

// FromPayload maps a Daraja callback payload onto a transaction row. Every
// field is optional; Daraja payloads vary between tills and paybills.
func FromPayload(shortcodeID uuid.UUID, payload map[string]any, raw json.RawMessage, status string) *model.Transaction {
	txn := &model.Transaction{
		ID:          uuid.New(),
		ShortcodeID: shortcodeID,
		Status:      status,
		RawPayload:  raw,
	}

	if transID := model.PayloadString(payload, "TransID", "TransactionID", "TransId"); transID != "" {
		txn.TransID = &transID
	}
	txn.TransTime = model.ParseTransTime(model.PayloadString(payload, "TransTime"))
	txn.Amount = model.ParseAmountMinor(model.PayloadString(payload, "TransAmount"))

	if msisdn := model.PayloadString(payload, "MSISDN"); msisdn != "" {
		txn.Msisdn = &msisdn
	}
	if billRef := model.PayloadString(payload, "BillRefNumber"); billRef != "" {
		txn.BillRefNumber = &billRef
	}
	if v := model.PayloadString(payload, "FirstName"); v != "" {
		txn.FirstName = &v
	}
	if v := model.PayloadString(payload, "MiddleName"); v != "" {
		txn.MiddleName = &v
	}
	if v := model.PayloadString(payload, "LastName"); v != "" {
		txn.LastName = &v
	}

	return txn
}
