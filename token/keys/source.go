package keys

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/jrsteele09/docusign-mcp-server/internal/config"
	"github.com/jrsteele09/docusign-mcp-server/internal/errors"
)

var pemPrefix = []byte("-----BEGIN")

// ReadPrivateKeyPEM returns the PEM bytes held by the source. Inline material
// is base64 encoded PEM; raw PEM is accepted as well.
func ReadPrivateKeyPEM(source config.PrivateKeySource) ([]byte, error) {
	if source.IsInline() {
		return decodeInline(source.Inline)
	}

	data, err := os.ReadFile(source.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading private key file %s: %v", errors.ErrCredentialLoad, source.Path, err)
	}
	return data, nil
}

func decodeInline(inline string) ([]byte, error) {
	inline = strings.TrimSpace(inline)
	if strings.HasPrefix(inline, string(pemPrefix)) {
		return []byte(inline), nil
	}

	compact := strings.Join(strings.Fields(inline), "")
	data, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		return nil, fmt.Errorf("%w: inline private key is not valid base64: %v", errors.ErrCredentialLoad, err)
	}
	if !bytes.Contains(data, pemPrefix) {
		return nil, fmt.Errorf("%w: inline private key does not decode to PEM", errors.ErrCredentialLoad)
	}
	return data, nil
}

// LoadKeyPair reads and parses the RSA key held by the source.
func LoadKeyPair(source config.PrivateKeySource) (*KeyPair, error) {
	data, err := ReadPrivateKeyPEM(source)
	if err != nil {
		return nil, err
	}

	keyPair, err := LoadKeyPairFromPEM("", data)
	if err != nil {
		return nil, fmt.Errorf("%w: private key from %s: %v", errors.ErrCredentialLoad, source, err)
	}
	return keyPair, nil
}
