package main

import (
	"fmt"
	"os"

	"github.com/jrsteele09/docusign-mcp-server/internal/config"
	"github.com/jrsteele09/docusign-mcp-server/internal/errors"
	"github.com/jrsteele09/docusign-mcp-server/token/keys"
	"github.com/spf13/cobra"
)

var (
	keyOut  string
	keyBits int
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate an RSA key pair for the integration key",
	Long: `Writes a PKCS#1 private key to --out (mode 0600) and prints the public key.
Upload the public key to the integration key's RSA key pairs in the DocuSign
admin console.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		publicPEM, err := generateKeyFile(keyOut, keyBits)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "private key written to %s\n", keyOut)
		fmt.Fprint(cmd.OutOrStdout(), publicPEM)
		return nil
	},
}

func init() {
	keygenCmd.Flags().StringVar(&keyOut, "out", config.DefaultPrivateKeyPath, "private key output path")
	keygenCmd.Flags().IntVar(&keyBits, "bits", 2048, "RSA key size")
}

// generateKeyFile writes a new private key to path, refusing to overwrite an
// existing file, and returns the public key PEM.
func generateKeyFile(path string, bits int) (string, error) {
	keyPair, err := keys.GenerateRSAKeyPair("", bits)
	if err != nil {
		return "", err
	}

	privatePEM, err := keyPair.ExportPrivateKeyPEM()
	if err != nil {
		return "", err
	}
	publicPEM, err := keyPair.ExportPublicKeyPEM()
	if err != nil {
		return "", err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", errors.Wrapf(err, "creating %s", path)
	}
	if _, err := f.WriteString(privatePEM); err != nil {
		f.Close()
		return "", errors.Wrapf(err, "writing %s", path)
	}
	if err := f.Close(); err != nil {
		return "", errors.Wrapf(err, "writing %s", path)
	}
	return publicPEM, nil
}
