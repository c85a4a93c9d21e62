package submission

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

type Location struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

// Address is the reverse-geocoded place of the report; every part is optional
type Address struct {
	City       string `json:"city,omitempty"`
	District   string `json:"district,omitempty"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

type Photo struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
}

// Draft is a report being composed by a citizen
type Draft struct {
	Title       string    `json:"title" validate:"required,max=255"`
	Category    string    `json:"category" validate:"required,max=100"`
	Priority    Priority  `json:"priority" validate:"oneof=Low Medium High"`
	Description string    `json:"description"`
	Photo       *Photo    `json:"photo,omitempty"`
	Location    *Location `json:"location" validate:"required"`
	Address     *Address  `json:"address,omitempty"`
}

// NewDraft returns an empty draft with the default priority
func NewDraft() Draft {
	return Draft{Priority: PriorityMedium}
}

func (d Draft) HasPhoto() bool {
	return d.Photo != nil && len(d.Photo.Data) > 0
}

// NeedsVerification is true when both a photo and a description are present
func (d Draft) NeedsVerification() bool {
	return d.HasPhoto() && d.Description != ""
}

func (d *Draft) normalize() {
	d.Title = strings.TrimSpace(d.Title)
	d.Category = strings.TrimSpace(d.Category)
	d.Description = strings.TrimSpace(d.Description)
	if d.Priority == "" {
		d.Priority = PriorityMedium
	}
	if d.Photo != nil && len(d.Photo.Data) == 0 {
		d.Photo = nil
	}
}

var validate = validator.New()

// Validate checks the draft can be submitted. Every failure is KindMissingFields.
func (d Draft) Validate(requireDescriptionWithPhoto bool) error {
	if err := validate.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &Error{Kind: KindMissingFields, Message: fieldMessage(verrs[0]), Err: err}
		}
		return &Error{Kind: KindMissingFields, Message: msgMissingFields, Err: err}
	}

	if requireDescriptionWithPhoto && d.HasPhoto() && d.Description == "" {
		return &Error{Kind: KindMissingFields, Message: "A description is required when a photo is attached"}
	}

	return nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return msgMissingFields
	case "oneof":
		return "priority must be one of Low, Medium, High"
	case "gte", "lte":
		return fmt.Sprintf("%s is out of range", strings.ToLower(fe.Field()))
	case "max":
		return fmt.Sprintf("%s is too long", strings.ToLower(fe.Field()))
	default:
		return msgMissingFields
	}
}
