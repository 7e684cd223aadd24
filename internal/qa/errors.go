// Copyright (c) 2025 Janet Alwanga / NutriWise Assistant
// SPDX-License-Identifier: AGPL-3.0-or-later

package qa

import (
	"errors"
	"fmt"
)

// =============================================================================
// FAILURE KINDS
// =============================================================================

// FailureKind categorizes a failed dispatch.
type FailureKind string

const (
	KindTimeout            FailureKind = "timeout"
	KindNetworkUnreachable FailureKind = "network-unreachable"
	KindServerError        FailureKind = "server-error"
	KindMalformedResponse  FailureKind = "malformed-response"
	KindUnexpectedStatus   FailureKind = "unexpected-status"
)

// User-facing notices, one per kind.
const (
	MsgTimeout            = "Request timed out. Please try again with a shorter message."
	MsgNetworkUnreachable = "Unable to connect to NutriWise AI. Please check your connection."
	MsgServerError        = "The nutrition service is temporarily unavailable. Please try again in a moment."
	MsgGeneric            = "Sorry, I encountered an error. Please try again."
)

// Message returns the fixed user-facing text for the kind.
func (k FailureKind) Message() string {
	switch k {
	case KindTimeout:
		return MsgTimeout
	case KindNetworkUnreachable:
		return MsgNetworkUnreachable
	case KindServerError:
		return MsgServerError
	default:
		return MsgGeneric
	}
}

func (k FailureKind) String() string {
	return string(k)
}

// =============================================================================
// FAILURE
// =============================================================================

// Failure is a classified dispatch error. Message is safe to show to the
// user; Detail and Cause are for logs.
type Failure struct {
	Kind       FailureKind
	StatusCode int
	Message    string
	Detail     string
	Cause      error
}

func newFailure(kind FailureKind, cause error) *Failure {
	return &Failure{Kind: kind, Message: kind.Message(), Cause: cause}
}

func (f *Failure) Error() string {
	s := string(f.Kind)
	if f.StatusCode != 0 {
		s = fmt.Sprintf("%s (HTTP %d)", s, f.StatusCode)
	}
	if f.Detail != "" {
		s += ": " + f.Detail
	}
	if f.Cause != nil {
		s += ": " + f.Cause.Error()
	}
	return s
}

func (f *Failure) Unwrap() error {
	return f.Cause
}

// Is matches another *Failure of the same kind, so the sentinels below work
// with errors.Is.
func (f *Failure) Is(target error) bool {
	t, ok := target.(*Failure)
	if !ok {
		return false
	}
	return t.Kind == f.Kind
}

// Sentinel failures for errors.Is checks.
var (
	ErrTimeout            = &Failure{Kind: KindTimeout, Message: MsgTimeout}
	ErrNetworkUnreachable = &Failure{Kind: KindNetworkUnreachable, Message: MsgNetworkUnreachable}
	ErrServerError        = &Failure{Kind: KindServerError, Message: MsgServerError}
	ErrMalformedResponse  = &Failure{Kind: KindMalformedResponse, Message: MsgGeneric}
	ErrUnexpectedStatus   = &Failure{Kind: KindUnexpectedStatus, Message: MsgGeneric}
)

// KindOf returns the failure kind of err, or "" if err is not a *Failure.
func KindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return ""
}

// IsTimeout reports whether err is a timeout failure.
func IsTimeout(err error) bool {
	return KindOf(err) == KindTimeout
}

// IsNetworkUnreachable reports whether the request never reached the server.
func IsNetworkUnreachable(err error) bool {
	return KindOf(err) == KindNetworkUnreachable
}

// IsServerError reports whether the server answered with a 5xx status.
func IsServerError(err error) bool {
	return KindOf(err) == KindServerError
}

// IsMalformedResponse reports whether a 2xx body could not be used.
func IsMalformedResponse(err error) bool {
	return KindOf(err) == KindMalformedResponse
}
