package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure for fallback control and telemetry.
type Kind string

const (
	KindNone                Kind = ""
	KindLanguageNotFound    Kind = "language_not_found"
	KindCaptionsDisabled    Kind = "captions_disabled"
	KindVideoUnavailable    Kind = "video_unavailable"
	KindExtractionTransient Kind = "extraction_transient"
	KindExtractionOther     Kind = "extraction_other"
	KindExtractionExhausted Kind = "extraction_exhausted"
	KindNoArtifact          Kind = "no_artifact"
	KindPublishFailure      Kind = "publish_failure"
	KindSigningFailure      Kind = "signing_failure"
)

type AppError struct {
	Code    int    `json:"-"`
	Kind    Kind   `json:"-"`
	Message string `json:"error"`
	Op      string `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func E(op string, err error, message string, code int) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Op:      op,
		Err:     err,
	}
}

func InvalidInput(op string, err error, message string) *AppError {
	return E(op, err, message, http.StatusBadRequest)
}

func NotFound(op string, err error, message string) *AppError {
	return E(op, err, message, http.StatusNotFound)
}

func Internal(op string, err error, message string) *AppError {
	return E(op, err, message, http.StatusInternalServerError)
}

func BadGateway(op string, err error, message string) *AppError {
	return E(op, err, message, http.StatusBadGateway)
}

// Classified builds an AppError carrying a taxonomy kind.
func Classified(op string, kind Kind, err error, message string, code int) *AppError {
	e := E(op, err, message, code)
	e.Kind = kind
	return e
}

// KindOf walks the error chain and returns the first classified kind.
func KindOf(err error) Kind {
	for err != nil {
		if app, ok := err.(*AppError); ok && app.Kind != KindNone {
			return app.Kind
		}
		err = stderrors.Unwrap(err)
	}
	return KindNone
}

// StatusOf maps an error to an HTTP status, defaulting to 500.
func StatusOf(err error) int {
	var app *AppError
	if stderrors.As(err, &app) {
		return app.Code
	}
	return http.StatusInternalServerError
}

// MessageOf returns the user-facing message, falling back to Error().
func MessageOf(err error) string {
	var app *AppError
	if stderrors.As(err, &app) {
		return app.Message
	}
	return err.Error()
}

func IsNotFound(err error) bool {
	var app *AppError
	return stderrors.As(err, &app) && app.Code == http.StatusNotFound
}
