package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/reporting-engine/internal/models"
)

// ChapterMetadataRepository loads the chapter link and priority table.
type ChapterMetadataRepository struct {
	db *sqlx.DB
}

// NewChapterMetadataRepository constructs the repository.
func NewChapterMetadataRepository(db *sqlx.DB) *ChapterMetadataRepository {
	return &ChapterMetadataRepository{db: db}
}

// LoadAll returns every chapter keyed by code.
func (r *ChapterMetadataRepository) LoadAll(ctx context.Context) (models.ChapterMetadataMap, error) {
	const query = `SELECT chapter_code, chapter_name,
	COALESCE(jee_link, '') AS jee_link, COALESCE(neet_link, '') AS neet_link,
	COALESCE(jee_priority, '') AS jee_priority, COALESCE(neet_priority, '') AS neet_priority
FROM chapter_metadata`
	var rows []models.ChapterMetadata
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("load chapter metadata: %w", err)
	}
	out := make(models.ChapterMetadataMap, len(rows))
	for _, row := range rows {
		out[row.Code] = row
	}
	return out, nil
}
