package database

import (
	"context"
	"encoding/base64"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"google.golang.org/api/option"

	"github.com/authstack/go-auth-service/internal/config"
)

// NewFirestoreClient initializes a Firestore client from configuration.
// Credentials are supplied base64-encoded in the environment; when absent,
// application default credentials are used (local emulator, GCE metadata).
// The caller owns the client and must Close it on shutdown.
func NewFirestoreClient(ctx context.Context, cfg config.FirestoreConfig) (*firestore.Client, error) {
	fbConfig := &firebase.Config{
		ProjectID: cfg.ProjectID,
	}

	var opts []option.ClientOption
	if cfg.CredentialsBase64 != "" {
		credentials, err := base64.StdEncoding.DecodeString(cfg.CredentialsBase64)
		if err != nil {
			return nil, fmt.Errorf("failed to decode Firestore credentials: %w", err)
		}
		opts = append(opts, option.WithCredentialsJSON(credentials))
	}

	app, err := firebase.NewApp(ctx, fbConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return client, nil
}
