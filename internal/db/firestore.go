package db

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/example/campmeeting/internal/config"
)

// Clients bundles the Firebase Admin SDK handles the application needs.
type Clients struct {
	App       *firebase.App
	Firestore *firestore.Client
	Auth      *auth.Client
}

// Close releases the Firestore connection.
func (c *Clients) Close() error {
	if c == nil || c.Firestore == nil {
		return nil
	}
	return c.Firestore.Close()
}

// CredentialsOption selects service account credentials from the configuration.
// A nil option means Application Default Credentials.
func CredentialsOption(appConfig *config.Config, logger *zap.Logger) (option.ClientOption, error) {
	switch {
	case appConfig.GoogleApplicationCredentials != "":
		if _, err := os.Stat(appConfig.GoogleApplicationCredentials); os.IsNotExist(err) {
			logger.Warn("credentials file does not exist; falling back to ADC may fail",
				zap.String("path", appConfig.GoogleApplicationCredentials))
		}
		return option.WithCredentialsFile(appConfig.GoogleApplicationCredentials), nil
	case appConfig.FirebaseServiceAccountJSONBase64 != "":
		decoded, err := base64.StdEncoding.DecodeString(appConfig.FirebaseServiceAccountJSONBase64)
		if err != nil {
			return nil, fmt.Errorf("failed to decode FIREBASE_SERVICE_ACCOUNT_JSON_BASE64: %w", err)
		}
		return option.WithCredentialsJSON(decoded), nil
	default:
		logger.Info("initializing Firebase using Application Default Credentials")
		return nil, nil
	}
}

// InitFirebase initializes the Firebase Admin SDK and returns the Firestore and Auth clients.
func InitFirebase(ctx context.Context, appConfig *config.Config, logger *zap.Logger) (*Clients, error) {
	clients, err := InitAuth(ctx, appConfig, logger)
	if err != nil {
		return nil, err
	}
	fsClient, err := clients.App.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("app.Firestore: %w", err)
	}
	clients.Firestore = fsClient
	return clients, nil
}

// InitAuth initializes the Admin SDK with only the Auth client, for running
// against the memory store.
func InitAuth(ctx context.Context, appConfig *config.Config, logger *zap.Logger) (*Clients, error) {
	if appConfig == nil {
		return nil, fmt.Errorf("InitFirebase: appConfig cannot be nil")
	}
	credsOption, err := CredentialsOption(appConfig, logger)
	if err != nil {
		return nil, err
	}

	fbConfig := &firebase.Config{ProjectID: appConfig.FirebaseProjectID}
	var opts []option.ClientOption
	if credsOption != nil {
		opts = append(opts, credsOption)
	}

	app, err := firebase.NewApp(ctx, fbConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase.NewApp: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("app.Auth: %w", err)
	}

	logger.Info("Firebase Admin SDK initialized", zap.String("projectID", appConfig.FirebaseProjectID))
	return &Clients{App: app, Auth: authClient}, nil
}
