// Copyright (c) 2025 Janet Alwanga / NutriWise Assistant
// SPDX-License-Identifier: AGPL-3.0-or-later

package controller

import (
	"errors"
	"fmt"
)

// Rejections that leave the controller untouched. Sinks ignore them.
var (
	ErrEmptyInput = errors.New("empty input")
	ErrBusy       = errors.New("a request is already in flight")
)

// KindInputTooLong is the failure kind reported for oversize input.
const KindInputTooLong = "input-too-long"

// TerminalSuffix is appended to a notice once retries are exhausted.
const TerminalSuffix = " If the problem persists, please restart NutriWise."

// InputTooLongError is returned when a message exceeds the length limit.
// Its Error text is meant for the user.
type InputTooLongError struct {
	Length int
	Max    int
}

func (e *InputTooLongError) Error() string {
	return fmt.Sprintf("Message is too long. Please keep it under %d characters.", e.Max)
}

// Kind returns KindInputTooLong.
func (e *InputTooLongError) Kind() string {
	return KindInputTooLong
}

// IsInputTooLong reports whether err is an *InputTooLongError.
func IsInputTooLong(err error) bool {
	var e *InputTooLongError
	return errors.As(err, &e)
}
