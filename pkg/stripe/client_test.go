package stripe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jtorres-dev/storefront-backend/pkg/config"
)

func TestNewClientValidatesKeyAgainstEnv(t *testing.T) {
	ctx := context.Background()

	_, err := NewClient(ctx, config.StripeConfig{APIKey: "sk_live_abc", Secret: "whsec_x", Env: "test"}, nil)
	require.Error(t, err)

	client, err := NewClient(ctx, config.StripeConfig{APIKey: "sk_test_abc", Secret: "whsec_x", Env: "test"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "test", client.Environment())
	assert.Equal(t, "whsec_x", client.SigningSecret())
	assert.NotNil(t, client.API())
}

func TestNewClientRequiresSecrets(t *testing.T) {
	ctx := context.Background()

	_, err := NewClient(ctx, config.StripeConfig{Secret: "whsec_x"}, nil)
	assert.ErrorIs(t, err, errAPIKeyRequired)

	_, err = NewClient(ctx, config.StripeConfig{APIKey: "sk_test_abc"}, nil)
	assert.ErrorIs(t, err, errSecretRequired)

	_, err = NewClient(ctx, config.StripeConfig{APIKey: "sk_test_abc", Secret: "whsec_x", Env: "sandbox"}, nil)
	assert.ErrorIs(t, err, errInvalidStripeEnv)
}
