package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Case stores the whole CaseRecord as one JSON document. Status is
// duplicated into its own column for filtering.
type Case struct {
	Id        uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Status    string         `gorm:"type:varchar(16);not null;index"`
	Document  datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
}

func (Case) TableName() string {
	return "triage_cases"
}
