package models

import (
	"fmt"
	"strings"

	"github.com/gosimple/slug"
)

// EventModel is a published event on the website. Only the fields the
// newsletter digest and the public event endpoints need are modelled.
type EventModel struct {
	Base
	Title    Translated `json:"title"     gorm:"type:longtext;serializer:json"`
	Content  Translated `json:"content"   gorm:"type:longtext;serializer:json"`
	Slug     string     `json:"slug"      gorm:"size:200;index"`
	IsActive bool       `json:"is_active" gorm:"index;not null"`
}

func (EventModel) TableName() string { return "events" }

// SetSlug derives the slug from the title in locale, transliterated to ASCII
// with underscores as separators.
func (e *EventModel) SetSlug(locale string) {
	title := strings.TrimSpace(e.Title.Get(locale, locale))
	if title == "" {
		return
	}
	e.Slug = strings.ReplaceAll(slug.Make(title), "-", "_")
}

// StaticPath is the front-end path of the event page.
func (e *EventModel) StaticPath() string {
	return fmt.Sprintf("events/%s/%s", e.ID, e.Slug)
}
