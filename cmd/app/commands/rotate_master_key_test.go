package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunRotateMasterKey(t *testing.T) {
	ctx := context.Background()

	t.Run("local-provider", func(t *testing.T) {
		t.Setenv("KMS_PROVIDER", "local")

		err := RunRotateMasterKey(ctx, false)
		require.NoError(t, err)
	})

	t.Run("keeper-without-key-uris", func(t *testing.T) {
		t.Setenv("KMS_PROVIDER", "keeper")
		t.Setenv("KMS_KEY_URIS", "")

		err := RunRotateMasterKey(ctx, false)
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to initialize kms provider")
	})
}
