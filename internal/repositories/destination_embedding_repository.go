package repositories

import (
	"context"
	"errors"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tripmate/internal/models/db_models"
	"tripmate/pkg/utils"
)

type DestinationEmbeddingRepository interface {
	Nearest(ctx context.Context, vector pgvector.Vector, minSimilarity float64, limit int) ([]db_models.DestinationEmbedding, error)
	Upsert(ctx context.Context, row db_models.DestinationEmbedding) error
	Count(ctx context.Context) (int64, error)
}

type destinationEmbeddingRepository struct {
	db *gorm.DB
}

func NewDestinationEmbeddingRepository(db *gorm.DB) DestinationEmbeddingRepository {
	return &destinationEmbeddingRepository{db: db}
}

// Nearest returns catalogue destinations by cosine similarity, best first.
func (r *destinationEmbeddingRepository) Nearest(ctx context.Context, vector pgvector.Vector, minSimilarity float64, limit int) ([]db_models.DestinationEmbedding, error) {
	var results []db_models.DestinationEmbedding

	query := `
        SELECT name, country, region, description, created_at, (1 - (embedding <=> $1)) as similarity
        FROM destination_embeddings
        WHERE (1 - (embedding <=> $1)) > $2
        ORDER BY embedding <=> $1
        LIMIT $3
    `

	err := r.db.WithContext(ctx).Raw(query, vector.String(), minSimilarity, limit).Scan(&results).Error
	if err != nil {
		return nil, errors.Join(utils.ErrDatabaseError, err)
	}
	return results, nil
}

func (r *destinationEmbeddingRepository) Upsert(ctx context.Context, row db_models.DestinationEmbedding) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"country", "region", "description", "embedding"}),
	}).Create(&row).Error
	if err != nil {
		return errors.Join(utils.ErrDatabaseError, err)
	}
	return nil
}

func (r *destinationEmbeddingRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&db_models.DestinationEmbedding{}).Count(&n).Error; err != nil {
		return 0, errors.Join(utils.ErrDatabaseError, err)
	}
	return n, nil
}
