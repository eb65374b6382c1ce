package timetracking

import (
	"encoding/json"
	"fmt"
	"time"
)

type PendingKind string

const (
	PendingKindManualCreation PendingKind = "MANUAL_CREATION"
	PendingKindCorrection     PendingKind = "CORRECTION"
)

// PendingChange describes why an entry is waiting for approval and therefore
// what rejecting it means. Implementations are PendingManualCreation and
// PendingCorrection.
type PendingChange interface {
	Kind() PendingKind
}

// PendingManualCreation marks an entry that only exists because of a manual
// submission. Rejecting it deletes the entry.
type PendingManualCreation struct{}

func (PendingManualCreation) Kind() PendingKind { return PendingKindManualCreation }

// PendingCorrection marks a proposed edit of a completed entry. Rejecting it
// restores Previous.
type PendingCorrection struct {
	Previous    EntrySnapshot `json:"previous"`
	RequestedBy string        `json:"requested_by"`
	RequestedAt time.Time     `json:"requested_at"`
}

func (PendingCorrection) Kind() PendingKind { return PendingKindCorrection }

type pendingEnvelope struct {
	Kind       PendingKind        `json:"kind"`
	Correction *PendingCorrection `json:"correction,omitempty"`
}

// EncodePending serializes a pending change for storage. A nil change encodes
// to nil.
func EncodePending(p PendingChange) ([]byte, error) {
	if p == nil {
		return nil, nil
	}
	env := pendingEnvelope{Kind: p.Kind()}
	switch v := p.(type) {
	case PendingManualCreation:
	case PendingCorrection:
		env.Correction = &v
	default:
		return nil, fmt.Errorf("unknown pending change %T", p)
	}
	return json.Marshal(env)
}

// DecodePending is the inverse of EncodePending.
func DecodePending(data []byte) (PendingChange, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var env pendingEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode pending change: %w", err)
	}
	switch env.Kind {
	case PendingKindManualCreation:
		return PendingManualCreation{}, nil
	case PendingKindCorrection:
		if env.Correction == nil {
			return nil, fmt.Errorf("pending correction without previous values")
		}
		return *env.Correction, nil
	default:
		return nil, fmt.Errorf("unknown pending kind %q", env.Kind)
	}
}
