package database

import (
	"context"
	"encoding/base64"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"

	"github.com/noah-isme/reporting-engine/pkg/config"
)

// NewFirestore opens the session directory. Credentials are a base64 encoded
// service account document; when empty, application default credentials apply.
func NewFirestore(ctx context.Context, cfg config.FirestoreConfig) (*firestore.Client, error) {
	opts, err := googleCredentials(cfg.Credentials)
	if err != nil {
		return nil, fmt.Errorf("firestore credentials: %w", err)
	}

	client, err := firestore.NewClient(ctx, firestore.DetectProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("open firestore: %w", err)
	}
	return client, nil
}

func googleCredentials(encoded string) ([]option.ClientOption, error) {
	if encoded == "" {
		return nil, nil
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return []option.ClientOption{option.WithCredentialsJSON(raw)}, nil
}
