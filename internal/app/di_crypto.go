package app

import (
	"context"
	"fmt"
	"strings"

	cryptoService "github.com/allisson/factorauth/internal/crypto/service"
)

// KMSProvider returns the layer-2 provider selected by configuration:
// "local" keeps master keys in process memory, "keeper" wraps through a
// gocloud.dev secrets keeper addressed by the configured key URIs.
func (c *Container) KMSProvider() (cryptoService.KMSProvider, error) {
	c.kmsProviderInit.Do(func() {
		provider, err := c.initKMSProvider()
		if err != nil {
			c.initErrors["kmsProvider"] = err
			return
		}
		c.kmsProvider = provider
	})
	if err, exists := c.initErrors["kmsProvider"]; exists {
		return nil, err
	}
	return c.kmsProvider, nil
}

// DoubleLayer returns the double-layer crypto engine.
func (c *Container) DoubleLayer() (*cryptoService.DoubleLayerService, error) {
	c.doubleLayerInit.Do(func() {
		kms, err := c.KMSProvider()
		if err != nil {
			c.initErrors["doubleLayer"] = err
			return
		}

		deriver := cryptoService.NewKeyDerivation(c.config.DerivationIterations)
		c.doubleLayer = cryptoService.NewDoubleLayer(deriver, kms, c.config.MinFactorCount, c.Logger())
	})
	if err, exists := c.initErrors["doubleLayer"]; exists {
		return nil, err
	}
	return c.doubleLayer, nil
}

func (c *Container) initKMSProvider() (cryptoService.KMSProvider, error) {
	switch c.config.KMSProvider {
	case "local", "":
		provider, err := cryptoService.NewLocalKMSProvider()
		if err != nil {
			return nil, fmt.Errorf("failed to create local kms provider: %w", err)
		}
		return provider, nil
	case "keeper":
		uris := splitKeyURIs(c.config.KMSKeyURIs)
		if len(uris) == 0 {
			return nil, fmt.Errorf("kms provider %q requires KMS_KEY_URIS", c.config.KMSProvider)
		}
		provider, err := cryptoService.NewKeeperKMSProvider(context.Background(), uris, cryptoService.OpenKeeper)
		if err != nil {
			return nil, fmt.Errorf("failed to create keeper kms provider: %w", err)
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("unsupported kms provider: %s", c.config.KMSProvider)
	}
}

func splitKeyURIs(value string) []string {
	var uris []string
	for _, uri := range strings.Split(value, ",") {
		uri = strings.TrimSpace(uri)
		if uri != "" {
			uris = append(uris, uri)
		}
	}
	return uris
}
