package models

import (
	"fmt"
	"time"
)

// RoundState is the lifecycle position of a single draw round.
// Transitions only move forward: Open -> Closed -> Drawn.
type RoundState int

const (
	StateOpen RoundState = iota + 1
	StateClosed
	StateDrawn
)

var roundStateNames = map[RoundState]string{
	StateOpen:   "open",
	StateClosed: "closed",
	StateDrawn:  "drawn",
}

// next lists the single legal successor of each state.
var next = map[RoundState]RoundState{
	StateOpen:   StateClosed,
	StateClosed: StateDrawn,
}

func (s RoundState) String() string {
	if name, ok := roundStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("RoundState(%d)", int(s))
}

// CanTransition reports whether a round in state s may move to state to.
func (s RoundState) CanTransition(to RoundState) bool {
	succ, ok := next[s]
	return ok && succ == to
}

func (s RoundState) MarshalText() ([]byte, error) {
	name, ok := roundStateNames[s]
	if !ok {
		return nil, fmt.Errorf("unknown round state %d", int(s))
	}
	return []byte(name), nil
}

func (s *RoundState) UnmarshalText(text []byte) error {
	for state, name := range roundStateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown round state %q", string(text))
}

// Round is a read-only view of one draw round.
// RevealSeed is nil until the round is drawn, SnapshotValue until it is closed.
type Round struct {
	ID             uint64     `json:"id"`
	State          RoundState `json:"state"`
	CommitmentHash Hash       `json:"commitmentHash"`
	RevealSeed     *Hash      `json:"revealSeed,omitempty"`
	SnapshotValue  *Hash      `json:"snapshotValue,omitempty"`
	TotalWeight    uint64     `json:"totalWeight"`
	DepositCount   int        `json:"depositCount"`
	EndTime        time.Time  `json:"endTime"`
}

// Deposit is one weighted entry. It owns the inclusive position range
// [StartPosition, EndPosition] of its round.
type Deposit struct {
	RoundID       uint64 `json:"roundId"`
	Index         int    `json:"index"`
	DepositorID   string `json:"depositorId"`
	BeneficiaryID string `json:"beneficiaryId"`
	Weight        uint64 `json:"weight"`
	StartPosition uint64 `json:"startPosition"`
	EndPosition   uint64 `json:"endPosition"`
}

// Contains reports whether position falls inside the deposit's range.
func (d Deposit) Contains(position uint64) bool {
	return d.StartPosition <= position && position <= d.EndPosition
}

// WinnerRecord stores the outcome of a single draw slot together with the
// resolved range, so the mapping can be audited.
type WinnerRecord struct {
	RoundID       uint64 `json:"roundId"`
	DrawIndex     int    `json:"drawIndex"`
	RandomNumber  uint64 `json:"randomNumber"`
	DepositorID   string `json:"depositorId"`
	BeneficiaryID string `json:"beneficiaryId"`
	RangeStart    uint64 `json:"rangeStart"`
	RangeEnd      uint64 `json:"rangeEnd"`
}

// FairnessProof is the public tuple an auditor needs to recompute a draw.
type FairnessProof struct {
	RoundID        uint64 `json:"roundId"`
	CommitmentHash Hash   `json:"commitmentHash"`
	RevealSeed     *Hash  `json:"revealSeed,omitempty"`
	SnapshotValue  *Hash  `json:"snapshotValue,omitempty"`
	TotalWeight    uint64 `json:"totalWeight"`
}
