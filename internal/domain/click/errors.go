package click

// Code is a Click wire error code.
type Code int

const (
	CodeSuccess              Code = 0
	CodeSignCheckFailed      Code = -1
	CodeInvalidAmount        Code = -2
	CodeActionNotFound       Code = -3
	CodeAlreadyPaid          Code = -4
	CodeUserNotFound         Code = -5
	CodeTransactionNotFound  Code = -6
	CodeFailedToUpdate       Code = -7
	CodeBadRequest           Code = -8
	CodeTransactionCancelled Code = -9
)

var notes = map[Code]string{
	CodeSuccess:              "Success",
	CodeSignCheckFailed:      "SIGN CHECK FAILED!",
	CodeInvalidAmount:        "Incorrect parameter amount",
	CodeActionNotFound:       "Action not found",
	CodeAlreadyPaid:          "Already paid",
	CodeUserNotFound:         "User does not exist",
	CodeTransactionNotFound:  "Transaction does not exist",
	CodeFailedToUpdate:       "Failed to update user",
	CodeBadRequest:           "Error in request from click",
	CodeTransactionCancelled: "Transaction cancelled",
}

// Note returns the error note sent with the code.
func (c Code) Note() string {
	if n, ok := notes[c]; ok {
		return n
	}
	return "Unknown error"
}
