package models

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// LocationChanges is the typed change-set an update proposal may carry.
// Only mutable business fields appear here; id and attribution metadata are
// set by the applier and can never be proposed. Nil fields are untouched on
// merge, non-nil fields overwrite the target wholesale.
type LocationChanges struct {
	Name     *string `json:"name,omitempty"`
	Region   *string `json:"region,omitempty"`
	Province *string `json:"province,omitempty"`
	Commune  *string `json:"commune,omitempty"`
	Address  *string `json:"address,omitempty"`

	Contacts   *[]LocationContact `json:"contacts,omitempty"`
	Activities *[]string          `json:"activities,omitempty"`
	QuickNote  *string            `json:"quick_note,omitempty"`

	Coordinates *Coordinates `json:"coordinates,omitempty"`
	Beds        *int         `json:"beds,omitempty"`
	Bathrooms   *int         `json:"bathrooms,omitempty"`

	HasTents           *bool `json:"has_tents,omitempty"`
	HasRefectory       *bool `json:"has_refectory,omitempty"`
	HasRoverService    *bool `json:"has_rover_service,omitempty"`
	HasChurch          *bool `json:"has_church,omitempty"`
	HasGreenSpace      *bool `json:"has_green_space,omitempty"`
	HasEquippedKitchen *bool `json:"has_equipped_kitchen,omitempty"`
	HasPoles           *bool `json:"has_poles,omitempty"`

	HasPastures     *bool   `json:"has_pastures,omitempty"`
	HasInsects      *bool   `json:"has_insects,omitempty"`
	HasDiseases     *bool   `json:"has_diseases,omitempty"`
	HasLittleShade  *bool   `json:"has_little_shade,omitempty"`
	HasVeryBusyArea *bool   `json:"has_very_busy_area,omitempty"`
	OtherAttention  *string `json:"other_attention,omitempty"`

	OtherLogistics          *string      `json:"other_logistics,omitempty"`
	RoverServiceDescription *string      `json:"rover_service_description,omitempty"`
	Restrictions            *[]string    `json:"restrictions,omitempty"`
	OtherRestrictions       *string      `json:"other_restrictions,omitempty"`
	Website                 *string      `json:"website,omitempty"`
	Email                   *string      `json:"email,omitempty"`
	Description             *string      `json:"description,omitempty"`
	Pricing                 *PricingInfo `json:"pricing,omitempty"`
	GoogleMapsLink          *string      `json:"google_maps_link,omitempty"`
}

// DecodeLocationChanges parses a raw change-set, rejecting unknown or
// forbidden fields (id, last_updated_at, last_updated_by, ...) at proposal
// creation time instead of silently carrying them to the applier.
func DecodeLocationChanges(raw json.RawMessage) (*LocationChanges, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var c LocationChanges
	if err := dec.Decode(&c); err != nil {
		return nil, ErrValidation
	}
	return &c, nil
}

// IsEmpty reports whether the change-set proposes nothing. An update
// proposal with an empty change-set is invalid.
func (c *LocationChanges) IsEmpty() bool {
	if c == nil {
		return true
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return true
	}
	return bytes.Equal(raw, []byte("{}"))
}

// ApplyTo merges the change-set onto loc (shallow overwrite, last proposal
// wins) and stamps the attribution metadata with the proposer and now.
func (c *LocationChanges) ApplyTo(loc *Location, proposerID uuid.UUID, now time.Time) {
	if c.Name != nil {
		loc.Name = *c.Name
	}
	if c.Region != nil {
		loc.Region = *c.Region
	}
	if c.Province != nil {
		loc.Province = *c.Province
	}
	if c.Commune != nil {
		loc.Commune = *c.Commune
	}
	if c.Address != nil {
		loc.Address = *c.Address
	}
	if c.Contacts != nil {
		loc.Contacts = *c.Contacts
	}
	if c.Activities != nil {
		loc.Activities = *c.Activities
	}
	if c.QuickNote != nil {
		loc.QuickNote = *c.QuickNote
	}
	if c.Coordinates != nil {
		loc.Coordinates = c.Coordinates
	}
	if c.Beds != nil {
		loc.Beds = c.Beds
	}
	if c.Bathrooms != nil {
		loc.Bathrooms = c.Bathrooms
	}
	if c.HasTents != nil {
		loc.HasTents = *c.HasTents
	}
	if c.HasRefectory != nil {
		loc.HasRefectory = *c.HasRefectory
	}
	if c.HasRoverService != nil {
		loc.HasRoverService = *c.HasRoverService
	}
	if c.HasChurch != nil {
		loc.HasChurch = *c.HasChurch
	}
	if c.HasGreenSpace != nil {
		loc.HasGreenSpace = *c.HasGreenSpace
	}
	if c.HasEquippedKitchen != nil {
		loc.HasEquippedKitchen = *c.HasEquippedKitchen
	}
	if c.HasPoles != nil {
		loc.HasPoles = *c.HasPoles
	}
	if c.HasPastures != nil {
		loc.HasPastures = *c.HasPastures
	}
	if c.HasInsects != nil {
		loc.HasInsects = *c.HasInsects
	}
	if c.HasDiseases != nil {
		loc.HasDiseases = *c.HasDiseases
	}
	if c.HasLittleShade != nil {
		loc.HasLittleShade = *c.HasLittleShade
	}
	if c.HasVeryBusyArea != nil {
		loc.HasVeryBusyArea = *c.HasVeryBusyArea
	}
	if c.OtherAttention != nil {
		loc.OtherAttention = *c.OtherAttention
	}
	if c.OtherLogistics != nil {
		loc.OtherLogistics = *c.OtherLogistics
	}
	if c.RoverServiceDescription != nil {
		loc.RoverServiceDescription = *c.RoverServiceDescription
	}
	if c.Restrictions != nil {
		loc.Restrictions = *c.Restrictions
	}
	if c.OtherRestrictions != nil {
		loc.OtherRestrictions = *c.OtherRestrictions
	}
	if c.Website != nil {
		loc.Website = *c.Website
	}
	if c.Email != nil {
		loc.Email = *c.Email
	}
	if c.Description != nil {
		loc.Description = *c.Description
	}
	if c.Pricing != nil {
		loc.Pricing = c.Pricing
	}
	if c.GoogleMapsLink != nil {
		loc.GoogleMapsLink = *c.GoogleMapsLink
	}
	loc.LastUpdatedAt = now
	loc.LastUpdatedBy = proposerID
}
