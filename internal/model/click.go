package model

// ClickRequest carries the fields of a Click prepare/complete callback.
// Signed fields are kept as the raw strings the provider sent, since the
// signature is computed over the exact wire representation.
type ClickRequest struct {
	ClickTransID      string `form:"click_trans_id"`
	ServiceID         string `form:"service_id"`
	ClickPaydocID     string `form:"click_paydoc_id"`
	MerchantTransID   string `form:"merchant_trans_id"`
	MerchantPrepareID string `form:"merchant_prepare_id"`
	Amount            string `form:"amount"`
	Action            string `form:"action"`
	Error             string `form:"error"`
	ErrorNote         string `form:"error_note"`
	SignTime          string `form:"sign_time"`
	SignString        string `form:"sign_string"`
}

// ClickResponse is the response envelope for both Click phases.
// Fields a phase does not use are omitted from the JSON.
type ClickResponse struct {
	ClickTransID      int64  `json:"click_trans_id,omitempty"`
	MerchantTransID   string `json:"merchant_trans_id,omitempty"`
	MerchantPrepareID int64  `json:"merchant_prepare_id,omitempty"`
	MerchantConfirmID int64  `json:"merchant_confirm_id,omitempty"`
	Error             int    `json:"error"`
	ErrorNote         string `json:"error_note"`
}

// OK reports whether the response carries the success code.
func (r *ClickResponse) OK() bool {
	return r.Error == 0
}
