package constants

// Shortcode types as Daraja classifies them.
const (
	ShortcodeTypeTill    = "TILL"
	ShortcodeTypePaybill = "PAYBILL"
)

// ResponseType values accepted by the Daraja RegisterURL API.
const (
	ResponseTypeCompleted = "Completed"
	ResponseTypeCancelled = "Cancelled"
)

// Transaction statuses.
const (
	TxStatusPending   = "PENDING"
	TxStatusConfirmed = "CONFIRMED"
	TxStatusRejected  = "REJECTED"
)

// Incoming webhook event types.
const (
	EventTypeValidation   = "VALIDATION"
	EventTypeConfirmation = "CONFIRMATION"
)

// Daraja C2B simulate command ids.
const (
	CommandIDPayBill  = "CustomerPayBillOnline"
	CommandIDBuyGoods = "CustomerBuyGoodsOnline"
)

// Sandbox defaults for the simulate action.
const (
	DefaultSimulateAmount  int64 = 1
	DefaultSimulateMsisdn        = "254708374149"
	DefaultSimulateBillRef       = "TEST"
)
