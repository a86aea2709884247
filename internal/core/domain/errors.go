package domain

import (
	"errors"
	"fmt"
)

var (
	ErrBlocked  = errors.New("identifier is blocked")
	ErrNotFound = errors.New("not found")
)

func IsBlockedError(err error) bool {
	return errors.Is(err, ErrBlocked)
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Estágios de validação reportados em ValidationError.
const (
	StageRequired   = "required"
	StageKeyword    = "keyword"
	StageEncoding   = "encoding"
	StageLength     = "length"
	StageSuspicious = "suspicious"
	StagePattern    = "pattern"
	StageURL        = "url"
)

// ValidationError descreve a rejeição de um filtro sintático.
type ValidationError struct {
	Stage   string
	Label   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("validation failed at %s: %s", e.Stage, e.Label)
}

type AuthReason string

const (
	AuthExpired      AuthReason = "expired"
	AuthBadSignature AuthReason = "bad_signature"
)

// AuthError descreve uma falha de assinatura ou de janela de validade.
// Hint é devolvido ao cliente quando presente.
type AuthError struct {
	Reason  AuthReason
	Message string
	Hint    string
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Reason)
}

// UpstreamError embrulha falhas do renderer, do fetch ou do avaliador.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return e.Err.Error()
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func AsValidationError(err error) (*ValidationError, bool) {
	var target *ValidationError
	ok := errors.As(err, &target)
	return target, ok
}

func AsAuthError(err error) (*AuthError, bool) {
	var target *AuthError
	ok := errors.As(err, &target)
	return target, ok
}

func AsUpstreamError(err error) (*UpstreamError, bool) {
	var target *UpstreamError
	ok := errors.As(err, &target)
	return target, ok
}
