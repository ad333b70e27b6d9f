package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Club is a member club licenses can be registered under.
type Club struct {
	ID uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`

	Name  string `gorm:"column:name;not null;unique"`
	Email string `gorm:"column:email;not null"`

	// Comma separated activity tags, e.g. "bilcross,rallycross".
	Activities string `gorm:"column:activities;not null;default:''"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// ActivityList splits the stored activity tags.
func (c Club) ActivityList() []string {
	if c.Activities == "" {
		return nil
	}
	parts := strings.Split(c.Activities, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
