// Package secrets overlays configuration with values held in Azure Key Vault.
package secrets

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	"github.com/sangkips/crm-backend/internal/config"
	"go.uber.org/zap"
)

// Getter fetches one secret value by name.
type Getter interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// VaultClient reads secrets from one Key Vault using DefaultAzureCredential
type VaultClient struct {
	client *azsecrets.Client
}

func NewVaultClient(vaultName string) (*VaultClient, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}
	client, err := azsecrets.NewClient(fmt.Sprintf("https://%s.vault.azure.net/", vaultName), cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Key Vault client: %w", err)
	}
	return &VaultClient{client: client}, nil
}

func (v *VaultClient) GetSecret(ctx context.Context, name string) (string, error) {
	resp, err := v.client.GetSecret(ctx, name, "", nil)
	if err != nil {
		return "", fmt.Errorf("failed to get secret %q: %w", name, err)
	}
	if resp.Value == nil {
		return "", fmt.Errorf("secret %q has no value", name)
	}
	return *resp.Value, nil
}

// Key Vault names only allow alphanumerics and dashes.
const (
	jwtSecretName  = "jwt-secret"
	dbPasswordName = "db-password"
	smtpPassName   = "smtp-password"
)

// Apply replaces sensitive settings in cfg with vault values. Secrets the
// vault does not hold keep their environment value.
func Apply(ctx context.Context, g Getter, cfg *config.Config, logger *zap.Logger) {
	targets := []struct {
		name string
		dst  *string
	}{
		{jwtSecretName, &cfg.JWT.Secret},
		{dbPasswordName, &cfg.Database.Password},
		{smtpPassName, &cfg.Email.SMTPPassword},
	}
	for _, t := range targets {
		value, err := g.GetSecret(ctx, t.name)
		if err != nil || value == "" {
			logger.Debug("secret not in vault, keeping environment value", zap.String("secret", t.name), zap.Error(err))
			continue
		}
		*t.dst = value
		logger.Info("secret loaded from vault", zap.String("secret", t.name))
	}
}

// Load applies vault overrides when a vault is configured.
func Load(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if cfg.KeyVault.Name == "" {
		return nil
	}
	client, err := NewVaultClient(cfg.KeyVault.Name)
	if err != nil {
		return err
	}
	Apply(ctx, client, cfg, logger)
	return nil
}
