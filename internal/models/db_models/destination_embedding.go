package db_models

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// DestinationEmbedding indexes a gazetteer destination for nearest-name
// lookups of misspelt or unfamiliar places.
type DestinationEmbedding struct {
	Name        string `gorm:"primaryKey"`
	Country     string
	Region      string
	Description string
	Embedding   pgvector.Vector `gorm:"type:vector"`
	CreatedAt   time.Time       `gorm:"autoCreateTime"`
	Similarity  float64         `gorm:"-:migration;->"`
}
