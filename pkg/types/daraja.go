package types

// OAuthTokenResponse is the Daraja client-credentials grant response.
// Daraja serializes expires_in as a string ("3599").
type OAuthTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

type RegisterURLRequest struct {
	ShortCode       string `json:"ShortCode"`
	ResponseType    string `json:"ResponseType"`
	ConfirmationURL string `json:"ConfirmationURL"`
	ValidationURL   string `json:"ValidationURL"`
}

// RegisterURLResponse keeps Daraja's own (misspelled) field name.
type RegisterURLResponse struct {
	OriginatorCoversationID string `json:"OriginatorCoversationID"`
	ResponseCode            string `json:"ResponseCode"`
	ResponseDescription     string `json:"ResponseDescription"`
}

type SimulateC2BRequest struct {
	ShortCode     string `json:"ShortCode"`
	CommandID     string `json:"CommandID"`
	Amount        int64  `json:"Amount"`
	Msisdn        string `json:"Msisdn"`
	BillRefNumber string `json:"BillRefNumber"`
}

type SimulateC2BResponse struct {
	ConversationID          string `json:"ConversationID"`
	OriginatorCoversationID string `json:"OriginatorCoversationID"`
	ResponseDescription     string `json:"ResponseDescription"`
}

// CallbackResult is the body Daraja expects back from both webhook endpoints:
// ResultCode 0 accepts the payment, 1 rejects it.
type CallbackResult struct {
	ResultCode int    `json:"ResultCode"`
	ResultDesc string `json:"ResultDesc"`
}
