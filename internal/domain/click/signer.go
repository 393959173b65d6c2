package click

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/uniedit/paygate/internal/domain/payment"
	"github.com/uniedit/paygate/internal/model"
)

// Phase selects the signature template.
type Phase int

const (
	PhasePrepare Phase = iota
	PhaseComplete
)

// String returns the phase name.
func (p Phase) String() string {
	if p == PhaseComplete {
		return "complete"
	}
	return "prepare"
}

// Signer computes and verifies Click request signatures.
//
//	prepare:  md5(click_trans_id service_id secret merchant_trans_id amount action sign_time)
//	complete: md5(click_trans_id service_id secret merchant_trans_id merchant_prepare_id amount action sign_time)
//
// Fields are concatenated exactly as received.
type Signer struct {
	secretKey string
}

// NewSigner creates a signer for the merchant secret key.
func NewSigner(secretKey string) *Signer {
	return &Signer{secretKey: secretKey}
}

// Sign returns the lower-case hex signature of req for the phase.
func (s *Signer) Sign(phase Phase, req *model.ClickRequest) (string, error) {
	fields, err := s.fields(phase, req)
	if err != nil {
		return "", err
	}
	sum := md5.Sum([]byte(strings.Join(fields, "")))
	return hex.EncodeToString(sum[:]), nil
}

// Verify reports whether req carries a valid signature for the phase.
// A mismatching or malformed signature is reported as false; only a missing
// required field yields an error.
func (s *Signer) Verify(phase Phase, req *model.ClickRequest) (bool, error) {
	if req.SignString == "" {
		return false, fmt.Errorf("%w: missing sign_string", payment.ErrBadRequest)
	}
	expected, err := s.Sign(phase, req)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(req.SignString)) == 1, nil
}

func (s *Signer) fields(phase Phase, req *model.ClickRequest) ([]string, error) {
	required := []struct {
		name, value string
	}{
		{"click_trans_id", req.ClickTransID},
		{"service_id", req.ServiceID},
		{"merchant_trans_id", req.MerchantTransID},
		{"amount", req.Amount},
		{"action", req.Action},
		{"sign_time", req.SignTime},
	}
	if phase == PhaseComplete {
		required = append(required, struct{ name, value string }{"merchant_prepare_id", req.MerchantPrepareID})
	}
	for _, f := range required {
		if f.value == "" {
			return nil, fmt.Errorf("%w: missing %s", payment.ErrBadRequest, f.name)
		}
	}

	fields := []string{req.ClickTransID, req.ServiceID, s.secretKey, req.MerchantTransID}
	if phase == PhaseComplete {
		fields = append(fields, req.MerchantPrepareID)
	}
	return append(fields, req.Amount, req.Action, req.SignTime), nil
}
