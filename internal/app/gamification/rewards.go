package gamification

import "github.com/ormeapp/orme/internal/app/models"

// Review workflow and reward magnitudes. These are policy knobs, not
// scattered business logic; every award and threshold check goes through
// these names.
const (
	// ApprovalThreshold is the number of distinct non-proposer approvals
	// that resolves a proposal as approved.
	ApprovalThreshold = 2
	// RejectionThreshold is the symmetric count for rejection.
	RejectionThreshold = 2

	// ReviewerReward goes to every voter for each vote they cast.
	ReviewerReward = 5
	// ProposerUpdateReward goes to the proposer of an applied update.
	ProposerUpdateReward = 10
	// ProposerDeleteReward goes to the proposer of an applied deletion.
	ProposerDeleteReward = 5
	// RejectionPenalty is subtracted from the proposer of a rejected
	// proposal, clamped so points never go below zero.
	RejectionPenalty = 5

	// New-location award: a base amount plus independent additive bonuses.
	BaseLocationPoints = 10
	WebsiteBonus       = 2
	ReachabilityBonus  = 3 // address, coordinates or maps link present
	PricingBonus       = 5
)

// PointsForNewLocation computes the award for a freshly added location.
// Bonuses are independent and additive; evaluation order does not matter.
func PointsForNewLocation(loc *models.Location) int {
	points := BaseLocationPoints
	if loc.Website != "" {
		points += WebsiteBonus
	}
	if loc.Address != "" || loc.Coordinates != nil || loc.GoogleMapsLink != "" {
		points += ReachabilityBonus
	}
	if p := loc.Pricing; p != nil && (p.BasePrice > 0 || p.Description != "") {
		points += PricingBonus
	}
	return points
}
