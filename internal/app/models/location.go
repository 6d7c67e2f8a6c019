package models

import (
	"time"

	"github.com/google/uuid"
)

// ContactType enumerates the supported contact channels for a location.
type ContactType string

const (
	ContactPhone    ContactType = "phone"
	ContactWhatsApp ContactType = "whatsapp"
	ContactEmail    ContactType = "email"
)

// LocationContact is a single contact entry for a location manager.
type LocationContact struct {
	Type  ContactType `json:"type"`
	Value string      `json:"value"`
	Name  string      `json:"name,omitempty"`
}

// PricingInfo describes the optional pricing of a location.
type PricingInfo struct {
	BasePrice   float64 `json:"base_price"`
	Unit        string  `json:"unit"` // "per_night" or "per_day"
	Description string  `json:"description"`
}

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Location is a place record in the shared directory. It is created directly
// by any authenticated user; every later mutation goes through an approved
// proposal, so LastUpdatedAt/LastUpdatedBy always reflect applied changes.
type Location struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Region   string    `json:"region"`
	Province string    `json:"province"`
	Commune  string    `json:"commune"`
	Address  string    `json:"address,omitempty"`

	Contacts   []LocationContact `json:"contacts"`
	Activities []string          `json:"activities"`
	QuickNote  string            `json:"quick_note"`

	Coordinates *Coordinates `json:"coordinates,omitempty"`
	Beds        *int         `json:"beds,omitempty"`
	Bathrooms   *int         `json:"bathrooms,omitempty"`

	// Capabilities
	HasTents           bool `json:"has_tents"`
	HasRefectory       bool `json:"has_refectory"`
	HasRoverService    bool `json:"has_rover_service"`
	HasChurch          bool `json:"has_church"`
	HasGreenSpace      bool `json:"has_green_space"`
	HasEquippedKitchen bool `json:"has_equipped_kitchen"`
	HasPoles           bool `json:"has_poles"`

	// Precautions
	HasPastures     bool   `json:"has_pastures"`
	HasInsects      bool   `json:"has_insects"`
	HasDiseases     bool   `json:"has_diseases"`
	HasLittleShade  bool   `json:"has_little_shade"`
	HasVeryBusyArea bool   `json:"has_very_busy_area"`
	OtherAttention  string `json:"other_attention,omitempty"`

	OtherLogistics          string       `json:"other_logistics,omitempty"`
	RoverServiceDescription string       `json:"rover_service_description,omitempty"`
	Restrictions            []string     `json:"restrictions"`
	OtherRestrictions       string       `json:"other_restrictions,omitempty"`
	Website                 string       `json:"website,omitempty"`
	Email                   string       `json:"email,omitempty"`
	Description             string       `json:"description,omitempty"`
	Pricing                 *PricingInfo `json:"pricing,omitempty"`
	GoogleMapsLink          string       `json:"google_maps_link,omitempty"`

	// Attribution metadata, written only by the proposal applier (or on create).
	LastUpdatedAt time.Time `json:"last_updated_at"`
	LastUpdatedBy uuid.UUID `json:"last_updated_by"`
}

// LocationFilter narrows directory listings. Zero values mean "no filter".
type LocationFilter struct {
	Region          string
	Province        string
	NameQuery       string
	HasTents        *bool
	HasRoverService *bool
	Limit           int
	Offset          int
}
