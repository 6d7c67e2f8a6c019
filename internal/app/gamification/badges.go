package gamification

import (
	"sort"

	"github.com/ormeapp/orme/internal/app/models"
)

// StatKey names the single user counter a badge is tied to.
type StatKey string

const (
	StatLocationsAdded        StatKey = "locations_added"
	StatContributionsApproved StatKey = "contributions_approved"
	StatValidationsGiven      StatKey = "validations_given"
	StatRSLocationsAdded      StatKey = "rs_locations_added"
	StatPricingInfoAdded      StatKey = "pricing_info_added"
	StatCoordinateInfoAdded   StatKey = "coordinate_info_added"
	StatWebsiteInfoAdded      StatKey = "website_info_added"
)

// Badge is earned once its stat counter reaches Goal. The earned set is
// always derived from the counters, never read back from storage as truth.
type Badge struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
	Goal        int     `json:"goal"`
	Stat        StatKey `json:"stat"`
}

// AllBadges is the fixed badge catalog.
var AllBadges = map[string]Badge{
	"piede_leggero": {
		ID:          "piede_leggero",
		Name:        "Piede Leggero",
		Description: "5 contributi approvati",
		Icon:        "🦶",
		Goal:        5,
		Stat:        StatContributionsApproved,
	},
	"tracciatore": {
		ID:          "tracciatore",
		Name:        "Tracciatore",
		Description: "15 luoghi aggiunti",
		Icon:        "🗺️",
		Goal:        15,
		Stat:        StatLocationsAdded,
	},
	"cartografo": {
		ID:          "cartografo",
		Name:        "Cartografo",
		Description: "30 luoghi con coordinate",
		Icon:        "📍",
		Goal:        30,
		Stat:        StatCoordinateInfoAdded,
	},
	"sentinella": {
		ID:          "sentinella",
		Name:        "Sentinella",
		Description: "10 conferme validità",
		Icon:        "👁️",
		Goal:        10,
		Stat:        StatValidationsGiven,
	},
	"rover_servizio": {
		ID:          "rover_servizio",
		Name:        "Rover di Servizio",
		Description: "10 luoghi con servizio RS",
		Icon:        "🤝",
		Goal:        10,
		Stat:        StatRSLocationsAdded,
	},
	"economo": {
		ID:          "economo",
		Name:        "Economo",
		Description: "10 luoghi con prezzi",
		Icon:        "💰",
		Goal:        10,
		Stat:        StatPricingInfoAdded,
	},
	"informatore": {
		ID:          "informatore",
		Name:        "Informatore",
		Description: "10 luoghi con sito web",
		Icon:        "🌐",
		Goal:        10,
		Stat:        StatWebsiteInfoAdded,
	},
}

// StatValue extracts the counter a badge watches.
func StatValue(stats models.UserStats, key StatKey) int {
	switch key {
	case StatLocationsAdded:
		return stats.LocationsAdded
	case StatContributionsApproved:
		return stats.ContributionsApproved
	case StatValidationsGiven:
		return stats.ValidationsGiven
	case StatRSLocationsAdded:
		return stats.RSLocationsAdded
	case StatPricingInfoAdded:
		return stats.PricingInfoAdded
	case StatCoordinateInfoAdded:
		return stats.CoordinateInfoAdded
	case StatWebsiteInfoAdded:
		return stats.WebsiteInfoAdded
	}
	return 0
}

// EarnedBadges derives the sorted set of badge IDs the counters have earned.
func EarnedBadges(stats models.UserStats) []string {
	earned := make([]string, 0, len(AllBadges))
	for id, badge := range AllBadges {
		if StatValue(stats, badge.Stat) >= badge.Goal {
			earned = append(earned, id)
		}
	}
	sort.Strings(earned)
	return earned
}

// BadgeList returns the catalog ordered by ID for stable API output.
func BadgeList() []Badge {
	ids := make([]string, 0, len(AllBadges))
	for id := range AllBadges {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	badges := make([]Badge, 0, len(ids))
	for _, id := range ids {
		badges = append(badges, AllBadges[id])
	}
	return badges
}
