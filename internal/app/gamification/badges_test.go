package gamification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ormeapp/orme/internal/app/models"
)

func TestEarnedBadges(t *testing.T) {
	t.Run("fresh user has none", func(t *testing.T) {
		assert.Empty(t, EarnedBadges(models.UserStats{}))
	})

	t.Run("goal boundary is inclusive", func(t *testing.T) {
		stats := models.UserStats{ContributionsApproved: 5}
		assert.Equal(t, []string{"piede_leggero"}, EarnedBadges(stats))

		stats.ContributionsApproved = 4
		assert.Empty(t, EarnedBadges(stats))
	})

	t.Run("each badge follows exactly one counter", func(t *testing.T) {
		stats := models.UserStats{ValidationsGiven: 10}
		assert.Equal(t, []string{"sentinella"}, EarnedBadges(stats))

		stats.RSLocationsAdded = 10
		assert.Equal(t, []string{"rover_servizio", "sentinella"}, EarnedBadges(stats))
	})

	t.Run("full sweep", func(t *testing.T) {
		stats := models.UserStats{
			LocationsAdded:        15,
			ContributionsApproved: 5,
			ValidationsGiven:      10,
			RSLocationsAdded:      10,
			PricingInfoAdded:      10,
			CoordinateInfoAdded:   30,
			WebsiteInfoAdded:      10,
		}
		earned := EarnedBadges(stats)
		require.Len(t, earned, len(AllBadges))
	})
}

func TestBadgeCatalog(t *testing.T) {
	for id, badge := range AllBadges {
		assert.Equal(t, id, badge.ID)
		assert.Positive(t, badge.Goal, "badge %s needs a goal", id)
		assert.NotEmpty(t, badge.Stat, "badge %s needs a stat counter", id)
	}

	list := BadgeList()
	require.Len(t, list, len(AllBadges))
	for i := 1; i < len(list); i++ {
		assert.Less(t, list[i-1].ID, list[i].ID, "catalog must be ID ordered")
	}
}
