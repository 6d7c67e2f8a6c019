package models

import (
	"time"

	"github.com/google/uuid"
)

// ProposalType distinguishes the two kinds of change request.
type ProposalType string

const (
	ProposalUpdate ProposalType = "update"
	ProposalDelete ProposalType = "delete"
)

// ProposalStatus is the proposal state machine. pending is the only
// non-terminal state; once a proposal leaves it, no vote can touch it again.
type ProposalStatus string

const (
	ProposalPending  ProposalStatus = "pending"
	ProposalApproved ProposalStatus = "approved"
	ProposalRejected ProposalStatus = "rejected"
	// ProposalApprovedStale marks a proposal whose approval consensus was
	// reached but whose target location no longer existed when the change
	// was applied. The conflict stays visible to reviewers and the proposer
	// reward is withheld.
	ProposalApprovedStale ProposalStatus = "approved_stale"
)

// Terminal reports whether the status admits no further transitions.
func (s ProposalStatus) Terminal() bool {
	return s != ProposalPending
}

// Proposal is a pending or resolved change request against a location.
// The proposer never appears among the voters, and each user votes at most
// once per proposal (enforced by the store schema).
type Proposal struct {
	ID           uuid.UUID        `json:"id"`
	Type         ProposalType     `json:"type"`
	LocationID   uuid.UUID        `json:"location_id"`
	LocationName string           `json:"location_name"` // snapshot for display after deletion
	ProposerID   uuid.UUID        `json:"proposer_id"`
	Changes      *LocationChanges `json:"changes,omitempty"` // update proposals only
	Approvals    []uuid.UUID      `json:"approvals"`
	Rejections   []uuid.UUID      `json:"rejections"`
	Status       ProposalStatus   `json:"status"`
	CreatedAt    time.Time        `json:"created_at"`
	ResolvedAt   *time.Time       `json:"resolved_at,omitempty"`
}

// VoteKind is the direction of a review vote.
type VoteKind string

const (
	VoteApprove VoteKind = "approve"
	VoteReject  VoteKind = "reject"
)

// VoteResult reports what a recorded vote did to the proposal.
type VoteResult struct {
	Proposal *Proposal `json:"proposal"`
	// Resolved is true only for the single vote that carried the proposal
	// over its threshold.
	Resolved bool `json:"resolved"`
	// Applied is true when the resolving vote also changed the location
	// (merge or delete actually happened).
	Applied bool `json:"applied"`
}
