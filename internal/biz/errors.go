package biz

import (
	"strings"

	"github.com/go-kratos/kratos/v2/errors"
)

// Error reasons carried from the orchestrator to the HTTP boundary.
const (
	ReasonNoFiles           = "NO_FILES"
	ReasonMalformedForm     = "MALFORMED_FORM"
	ReasonVideoTooLarge     = "VIDEO_TOO_LARGE"
	ReasonContentRejected   = "CONTENT_REJECTED"
	ReasonModerationFailed  = "MODERATION_FAILED"
	ReasonModerationTimeout = "MODERATION_TIMEOUT"
	ReasonCodeExhausted     = "CODE_EXHAUSTED"
	ReasonStorageFailed     = "STORAGE_FAILED"
)

var (
	ErrNoFiles = errors.New(400, ReasonNoFiles, "no file provided")

	ErrMalformedForm = errors.New(400, ReasonMalformedForm, "could not read the upload form")

	ErrCodeExhausted = errors.New(500, ReasonCodeExhausted, "could not allocate a free code")

	ErrModerationTimeout = errors.New(408, ReasonModerationTimeout, "moderation did not finish in time")
)

// ErrVideoTooLarge reports an oversize video rejected before any
// moderation call.
func ErrVideoTooLarge(limit int64) *errors.Error {
	return errors.Newf(400, ReasonVideoTooLarge, "video exceeds the %dMB limit", limit>>20)
}

// ErrContentRejected reports a content violation with its labels.
func ErrContentRejected(reasons []string) *errors.Error {
	return errors.New(400, ReasonContentRejected, "rejected: "+strings.Join(reasons, ", "))
}

// ErrModerationFailed passes a moderation service failure through to
// the client.
func ErrModerationFailed(err error) *errors.Error {
	return errors.New(400, ReasonModerationFailed, "moderation failed: "+err.Error())
}

// ErrStorageFailed reports a storage write failure.
func ErrStorageFailed(err error) *errors.Error {
	return errors.New(500, ReasonStorageFailed, "storage failed: "+err.Error())
}
