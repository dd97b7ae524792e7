package commands

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	cryptoDomain "github.com/allisson/factorauth/internal/crypto/domain"
)

// RunCreateMasterKey generates a cryptographically secure 32-byte master key
// and prints it as a base64key:// URI for the keeper provider. Key material
// is zeroed from memory after encoding.
//
// Security: base64key URIs embed the key itself and are for local
// development only. Production deployments should point KMS_KEY_URIS at a
// cloud KMS (gcpkms://..., awskms://..., azurekeyvault://..., hashivault://...).
func RunCreateMasterKey(writer io.Writer) error {
	masterKey := make([]byte, cryptoDomain.KeySize)
	if _, err := rand.Read(masterKey); err != nil {
		return fmt.Errorf("failed to generate master key: %w", err)
	}
	defer cryptoDomain.Zero(masterKey)

	encodedKey := base64.URLEncoding.EncodeToString(masterKey)

	_, _ = fmt.Fprintln(writer, "# Master Key Configuration")
	_, _ = fmt.Fprintln(writer, "# Copy these environment variables to your .env file or secrets manager")
	_, _ = fmt.Fprintln(writer)
	_, _ = fmt.Fprintln(writer, "KMS_PROVIDER=\"keeper\"")
	_, _ = fmt.Fprintf(writer, "KMS_KEY_URIS=\"base64key://%s\"\n", encodedKey)
	_, _ = fmt.Fprintln(writer)
	_, _ = fmt.Fprintln(writer, "# For key rotation, append the new key URI; rotation activates the next")
	_, _ = fmt.Fprintln(writer, "# entry in the list while earlier entries keep unwrapping old records:")
	_, _ = fmt.Fprintln(writer, "# KMS_KEY_URIS=\"base64key://<current>,base64key://<next>\"")

	return nil
}
