// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Dana Reiter, Lucerna

package osp

import (
	"errors"
	"fmt"
)

// Codec and bus errors. Encoders and decoders wrap these sentinels with
// context; callers match with errors.Is.
var (
	ErrAddress     = errors.New("invalid osp address")
	ErrArg         = errors.New("argument out of range")
	ErrSize        = errors.New("telegram size mismatch")
	ErrPSI         = errors.New("payload size indicator mismatch")
	ErrPreamble    = errors.New("preamble corrupt")
	ErrTID         = errors.New("unexpected telegram id")
	ErrCRC         = errors.New("checksum mismatch")
	ErrNoResponse  = errors.New("no response from bus")
	ErrCabling     = errors.New("chain not reachable in loop or bidir mode")
	ErrNotSAID     = errors.New("node is not a said")
	ErrNoI2CBridge = errors.New("i2c bridge not enabled in otp")
	ErrI2CTimeout  = errors.New("i2c transaction still busy")
	ErrI2CNack     = errors.New("i2c transaction nacked")
)

// Phase identifies which stage of an exchange failed.
type Phase int

const (
	PhaseConstruct Phase = iota
	PhaseTransfer
	PhaseDestruct
)

func (p Phase) String() string {
	switch p {
	case PhaseConstruct:
		return "construct"
	case PhaseTransfer:
		return "transfer"
	case PhaseDestruct:
		return "destruct"
	}
	return "unknown"
}

// PhaseError tags an exchange failure with the operation name and the
// phase that produced it. Unwrap exposes the underlying sentinel.
type PhaseError struct {
	Op    string
	Phase Phase
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

func phaseErr(op string, phase Phase, err error) error {
	if err == nil {
		return nil
	}
	return &PhaseError{Op: op, Phase: phase, Err: err}
}
