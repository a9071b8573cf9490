package album

import (
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"

	"github.com/tonimelisma/album-go/internal/museum"
)

// derivedKeyLen is the length of the argon2id-derived password hash sent
// for verification.
const derivedKeyLen = 32

// derivePasswordHash derives the verification hash from a user-supplied
// password using the key derivation parameters stored on the public URL.
// The plaintext password never leaves the client; only this hash does.
func derivePasswordHash(password string, publicURL museum.PublicURL) (string, error) {
	if publicURL.Nonce == "" {
		return "", errors.New("public URL carries no KDF nonce")
	}

	salt, err := base64.StdEncoding.DecodeString(publicURL.Nonce)
	if err != nil {
		return "", fmt.Errorf("decoding KDF nonce: %w", err)
	}

	opsLimit := publicURL.OpsLimit
	memLimit := publicURL.MemLimit

	if opsLimit == 0 || memLimit == 0 {
		return "", errors.New("public URL carries no KDF limits")
	}

	// MemLimit arrives in bytes (libsodium convention); argon2 wants KiB.
	// Parallelism is part of the argon2 output, and the sharer derived the
	// hash with a single lane — this must stay 1.
	key := argon2.IDKey(
		[]byte(password),
		salt,
		opsLimit,
		memLimit/1024,
		1,
		derivedKeyLen,
	)

	return base64.StdEncoding.EncodeToString(key), nil
}
