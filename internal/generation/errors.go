package generation

import (
	"context"
	"errors"
	"fmt"

	"github.com/nerdneilsfield/telegram-fashion-bot/pkg/gemini"
)

var (
	ErrAlreadyRunning      = errors.New("generation already running for this user")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrPhotoUnavailable    = errors.New("cached photo is unavailable")
	ErrUndecodableImage    = errors.New("generated image could not be decoded")
	errRefused             = errors.New("generation refused")
)

// Failure classes. The bot maps each to a localized message "failure_<class>".
const (
	ClassRegion      = "region"
	ClassQuota       = "quota"
	ClassUnavailable = "unavailable"
	ClassRejected    = "rejected"
	ClassRefused     = "refused"
	ClassEmpty       = "empty"
	ClassMalformed   = "malformed"
	ClassUndecodable = "undecodable"
	ClassTimeout     = "timeout"
	ClassDelivery    = "delivery"
	ClassGeneric     = "generic"
)

const maxDetailRunes = 200

// Failure is returned when a charged generation did not reach the user.
type Failure struct {
	Class    string
	Detail   string
	Refunded bool
	Err      error
}

func (f *Failure) Error() string {
	if f.Detail == "" {
		return fmt.Sprintf("generation failed (%s)", f.Class)
	}
	return fmt.Sprintf("generation failed (%s): %s", f.Class, f.Detail)
}

func (f *Failure) Unwrap() error { return f.Err }

func classify(err error) string {
	switch {
	case errors.Is(err, gemini.ErrRegionUnsupported):
		return ClassRegion
	case errors.Is(err, gemini.ErrQuotaExceeded):
		return ClassQuota
	case errors.Is(err, gemini.ErrUnavailable):
		return ClassUnavailable
	case errors.Is(err, gemini.ErrRejected):
		return ClassRejected
	case errors.Is(err, errRefused):
		return ClassRefused
	case errors.Is(err, gemini.ErrEmptyPayload):
		return ClassEmpty
	case errors.Is(err, gemini.ErrMalformedResponse):
		return ClassMalformed
	case errors.Is(err, ErrUndecodableImage):
		return ClassUndecodable
	case errors.Is(err, context.DeadlineExceeded):
		return ClassTimeout
	default:
		return ClassGeneric
	}
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
