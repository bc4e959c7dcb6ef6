package storage

import (
	"fmt"

	"github.com/ruteri/validator-keyshares/interfaces"
)

// namespace returns the directory or key prefix content of a type is kept under.
func namespace(contentType interfaces.ContentType) (string, error) {
	switch contentType {
	case interfaces.KeySharesType:
		return "keyshares", nil
	case interfaces.KeystoreType:
		return "keystores", nil
	default:
		return "", fmt.Errorf("unsupported content type: %v", contentType)
	}
}
