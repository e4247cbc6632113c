package bot

import "errors"

// Validation failures inside media wizard steps. Both leave the wizard step
// unchanged so the sender can retry.
var (
	ErrMissingMedia = &codedError{code: "missing_media", msg: "bot: attachment required"}
	ErrNotImage     = &codedError{code: "not_image", msg: "bot: attachment is not an image"}
)

type codedError struct {
	code string
	msg  string
}

func (e *codedError) Error() string { return e.msg }

// Code identifies the error class in handler summary logs.
func (e *codedError) Code() string { return e.code }

// errCode maps an error to its summary log code.
func errCode(err error) string {
	if err == nil {
		return ""
	}
	var c interface{ Code() string }
	if errors.As(err, &c) {
		return c.Code()
	}
	return "internal"
}
