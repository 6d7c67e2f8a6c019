package gamification

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ormeapp/orme/internal/app/models"
)

func TestPointsForNewLocation(t *testing.T) {
	t.Run("base only", func(t *testing.T) {
		loc := &models.Location{Name: "Base Brownsea"}
		assert.Equal(t, BaseLocationPoints, PointsForNewLocation(loc))
	})

	t.Run("website bonus", func(t *testing.T) {
		loc := &models.Location{Website: "https://example.org"}
		assert.Equal(t, BaseLocationPoints+WebsiteBonus, PointsForNewLocation(loc))
	})

	t.Run("reachability bonus counts once", func(t *testing.T) {
		loc := &models.Location{
			Address:        "Via dei Sentieri 1",
			Coordinates:    &models.Coordinates{Lat: 45.1, Lng: 7.6},
			GoogleMapsLink: "https://maps.example.org/x",
		}
		assert.Equal(t, BaseLocationPoints+ReachabilityBonus, PointsForNewLocation(loc))
	})

	t.Run("pricing bonus on positive price", func(t *testing.T) {
		loc := &models.Location{Pricing: &models.PricingInfo{BasePrice: 4, Unit: "per_night"}}
		assert.Equal(t, BaseLocationPoints+PricingBonus, PointsForNewLocation(loc))
	})

	t.Run("pricing bonus on description only", func(t *testing.T) {
		loc := &models.Location{Pricing: &models.PricingInfo{Description: "offerta libera"}}
		assert.Equal(t, BaseLocationPoints+PricingBonus, PointsForNewLocation(loc))
	})

	t.Run("zero pricing earns nothing", func(t *testing.T) {
		loc := &models.Location{Pricing: &models.PricingInfo{Unit: "per_day"}}
		assert.Equal(t, BaseLocationPoints, PointsForNewLocation(loc))
	})

	t.Run("all bonuses are additive", func(t *testing.T) {
		loc := &models.Location{
			Website: "https://example.org",
			Address: "Via dei Sentieri 1",
			Pricing: &models.PricingInfo{BasePrice: 4},
		}
		want := BaseLocationPoints + WebsiteBonus + ReachabilityBonus + PricingBonus
		assert.Equal(t, want, PointsForNewLocation(loc))
	})
}
