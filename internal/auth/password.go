package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/questhub/questhub/internal/shared"
)

// Argon2Params are the cost parameters used for new hashes. Existing hashes
// verify with the parameters embedded in their encoding.
type Argon2Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
	SaltLen uint32
}

// DefaultArgon2Params follows the x/crypto/argon2 recommendation for argon2id.
var DefaultArgon2Params = Argon2Params{
	Time:    1,
	Memory:  64 * 1024,
	Threads: 4,
	KeyLen:  32,
	SaltLen: 32,
}

const (
	variantID = "argon2id"
	variantI  = "argon2i"

	// maxMemory bounds what a stored encoding may ask us to allocate.
	maxMemory = 1 << 21
)

// PasswordHasher derives and verifies salted Argon2 hashes in the PHC
// string format: $argon2id$v=19$m=65536,t=1,p=4$<salt>$<digest>.
type PasswordHasher struct {
	params Argon2Params
	rand   io.Reader
}

// NewPasswordHasher constructs a hasher using params for new hashes.
func NewPasswordHasher(params Argon2Params) *PasswordHasher {
	return &PasswordHasher{params: params, rand: rand.Reader}
}

// Hash draws a fresh salt and returns the encoded argon2id hash.
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	salt := make([]byte, h.params.SaltLen)
	if _, err := io.ReadFull(h.rand, salt); err != nil {
		return "", fmt.Errorf("%w: read salt: %v", shared.ErrArgonLibrary, err)
	}
	p := h.params
	digest := argon2.IDKey([]byte(plaintext), salt, p.Time, p.Memory, p.Threads, p.KeyLen)
	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		variantID, argon2.Version, p.Memory, p.Time, p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(digest),
	), nil
}

// Verify recomputes the digest for plaintext and compares it in constant
// time. A mismatch is (false, nil); only a malformed encoding is an error.
func (h *PasswordHasher) Verify(encoded, plaintext string) (bool, error) {
	dec, err := decodeHash(encoded)
	if err != nil {
		return false, err
	}
	var digest []byte
	switch dec.variant {
	case variantID:
		digest = argon2.IDKey([]byte(plaintext), dec.salt, dec.params.Time, dec.params.Memory, dec.params.Threads, dec.params.KeyLen)
	case variantI:
		digest = argon2.Key([]byte(plaintext), dec.salt, dec.params.Time, dec.params.Memory, dec.params.Threads, dec.params.KeyLen)
	}
	return subtle.ConstantTimeCompare(digest, dec.digest) == 1, nil
}

type decodedHash struct {
	variant string
	params  Argon2Params
	salt    []byte
	digest  []byte
}

func decodeHash(encoded string) (decodedHash, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return decodedHash{}, fmt.Errorf("%w: unexpected segment count", shared.ErrArgonLibrary)
	}
	out := decodedHash{variant: parts[1]}
	if out.variant != variantID && out.variant != variantI {
		return decodedHash{}, fmt.Errorf("%w: unsupported variant %q", shared.ErrArgonLibrary, out.variant)
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return decodedHash{}, fmt.Errorf("%w: version: %v", shared.ErrArgonLibrary, err)
	}
	if version != argon2.Version {
		return decodedHash{}, fmt.Errorf("%w: unsupported version %d", shared.ErrArgonLibrary, version)
	}

	var threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &out.params.Memory, &out.params.Time, &threads); err != nil {
		return decodedHash{}, fmt.Errorf("%w: params: %v", shared.ErrArgonLibrary, err)
	}
	if out.params.Time == 0 || threads == 0 || threads > 255 || out.params.Memory == 0 || out.params.Memory > maxMemory {
		return decodedHash{}, fmt.Errorf("%w: params out of range", shared.ErrArgonLibrary)
	}
	out.params.Threads = uint8(threads)

	var err error
	if out.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return decodedHash{}, fmt.Errorf("%w: salt: %v", shared.ErrArgonLibrary, err)
	}
	if out.digest, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return decodedHash{}, fmt.Errorf("%w: digest: %v", shared.ErrArgonLibrary, err)
	}
	if len(out.digest) == 0 {
		return decodedHash{}, fmt.Errorf("%w: empty digest", shared.ErrArgonLibrary)
	}
	out.params.KeyLen = uint32(len(out.digest))
	out.params.SaltLen = uint32(len(out.salt))
	return out, nil
}
