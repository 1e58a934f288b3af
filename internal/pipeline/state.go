package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/ironsheep/pixelkit-mcp/internal/imaging"
)

// State is the position of a run in its lifecycle.
//
//	Idle -> Decoding -> Transforming -> Encoding -> Done
//
// Any state before Done may move to Failed. Config validation happens while
// Idle, so an invalid request fails without decoding anything.
type State int

const (
	StateIdle State = iota
	StateDecoding
	StateTransforming
	StateEncoding
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDecoding:
		return "decoding"
	case StateTransforming:
		return "transforming"
	case StateEncoding:
		return "encoding"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// FailureKind classifies why a run ended in StateFailed.
type FailureKind string

const (
	FailureNone     FailureKind = ""
	FailureDecode   FailureKind = "decode"
	FailureConfig   FailureKind = "config"
	FailureEncode   FailureKind = "encode"
	FailureCanceled FailureKind = "canceled"
	// FailureInternal covers anything outside the documented taxonomy.
	FailureInternal FailureKind = "internal"
)

// Classify maps an error returned by the pipeline to its FailureKind.
func Classify(err error) FailureKind {
	if err == nil {
		return FailureNone
	}
	var (
		decErr *imaging.DecodeError
		cfgErr *imaging.ConfigError
		encErr *imaging.EncodeError
	)
	switch {
	case errors.As(err, &cfgErr):
		return FailureConfig
	case errors.As(err, &decErr):
		return FailureDecode
	case errors.As(err, &encErr):
		return FailureEncode
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return FailureCanceled
	}
	return FailureInternal
}

// validTransitions lists the states reachable from each state.
var validTransitions = map[State][]State{
	StateIdle:         {StateDecoding, StateFailed},
	StateDecoding:     {StateTransforming, StateFailed},
	StateTransforming: {StateEncoding, StateFailed},
	StateEncoding:     {StateDone, StateFailed},
}

// machine tracks one run's state and rejects illegal transitions.
type machine struct {
	state   State
	failure FailureKind
}

func (m *machine) to(next State) error {
	for _, s := range validTransitions[m.state] {
		if s == next {
			m.state = next
			return nil
		}
	}
	return fmt.Errorf("illegal state transition %s -> %s", m.state, next)
}

// fail moves to StateFailed, recording the kind derived from err.
func (m *machine) fail(err error) {
	if m.state.Terminal() {
		return
	}
	m.state = StateFailed
	m.failure = Classify(err)
}
