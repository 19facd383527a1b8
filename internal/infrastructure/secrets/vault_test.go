package secrets

import (
	"context"
	"errors"
	"testing"

	"github.com/sangkips/crm-backend/internal/config"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type mapGetter map[string]string

func (m mapGetter) GetSecret(_ context.Context, name string) (string, error) {
	v, ok := m[name]
	if !ok {
		return "", errors.New("SecretNotFound")
	}
	return v, nil
}

func TestApplyOverridesOnlyKnownSecrets(t *testing.T) {
	cfg := &config.Config{
		JWT:      config.JWTConfig{Secret: "from-env"},
		Database: config.DatabaseConfig{Password: "env-pass"},
	}

	Apply(context.Background(), mapGetter{"jwt-secret": "from-vault"}, cfg, zap.NewNop())

	assert.Equal(t, "from-vault", cfg.JWT.Secret)
	assert.Equal(t, "env-pass", cfg.Database.Password)
}

func TestLoadWithoutVaultIsNoop(t *testing.T) {
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "s"}}
	assert.NoError(t, Load(context.Background(), cfg, zap.NewNop()))
	assert.Equal(t, "s", cfg.JWT.Secret)
}
