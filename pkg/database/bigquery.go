package database

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"

	"github.com/noah-isme/reporting-engine/pkg/config"
)

// NewBigQuery opens the analytics warehouse client with the same credential
// handling as NewFirestore.
func NewBigQuery(ctx context.Context, cfg config.BigQueryConfig) (*bigquery.Client, error) {
	opts, err := googleCredentials(cfg.Credentials)
	if err != nil {
		return nil, fmt.Errorf("bigquery credentials: %w", err)
	}

	projectID := cfg.ProjectID
	if projectID == "" {
		projectID = bigquery.DetectProjectID
	}
	client, err := bigquery.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("open bigquery: %w", err)
	}
	return client, nil
}
