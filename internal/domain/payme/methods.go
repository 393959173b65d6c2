package payme

import "github.com/uniedit/paygate/internal/model"

// Method is one of the six Payme merchant API methods.
type Method int

const (
	MethodCheckPerformTransaction Method = iota
	MethodCreateTransaction
	MethodPerformTransaction
	MethodCancelTransaction
	MethodCheckTransaction
	MethodGetStatement

	methodCount
)

var methodNames = [methodCount]string{
	MethodCheckPerformTransaction: "CheckPerformTransaction",
	MethodCreateTransaction:       "CreateTransaction",
	MethodPerformTransaction:      "PerformTransaction",
	MethodCancelTransaction:       "CancelTransaction",
	MethodCheckTransaction:        "CheckTransaction",
	MethodGetStatement:            "GetStatement",
}

// String returns the wire name of the method.
func (m Method) String() string {
	if m < 0 || m >= methodCount {
		return "unknown"
	}
	return methodNames[m]
}

// ParseMethod maps a wire method name to a Method.
func ParseMethod(name string) (Method, bool) {
	for m, n := range methodNames {
		if n == name {
			return Method(m), true
		}
	}
	return 0, false
}

// Transaction states reported to Payme.
const (
	StatePending   = 1
	StatePerformed = 2
	StateCancelled = -1
	StateFailed    = -2
)

// StateOf maps a payment status to the Payme transaction state.
func StateOf(s model.PaymentStatus) int {
	switch s {
	case model.PaymentStatusSuccess:
		return StatePerformed
	case model.PaymentStatusCancelled:
		return StateCancelled
	case model.PaymentStatusFailed:
		return StateFailed
	default:
		return StatePending
	}
}
