package devserver

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"strings"

	"git.gdb.dev/gdb/board/src/oops"
	"golang.org/x/crypto/argon2"
)

const (
	algoArgon2id = "argon2id"

	saltLength = 16
	keyLength  = 64
)

type argon2idConfig struct {
	Time      uint32
	Memory    uint32
	Threads   uint8
	KeyLength uint32
}

// Follows the OWASP recommendations as of March 2021.
var defaultArgon2idConfig = argon2idConfig{
	Time:      1,
	Memory:    40 * 1024, // KiB
	Threads:   1,
	KeyLength: keyLength,
}

func (c argon2idConfig) String() string {
	return fmt.Sprintf("t=%v,m=%v,p=%v,l=%v", c.Time, c.Memory, c.Threads, c.KeyLength)
}

func parseArgon2idConfig(cfg string) (argon2idConfig, error) {
	parts := strings.Split(cfg, ",")
	if len(parts) != 4 {
		return argon2idConfig{}, oops.New(nil, "bad Argon2id config %q", cfg)
	}

	values := make([]uint64, 4)
	for i, part := range parts {
		_, num, ok := strings.Cut(part, "=")
		if !ok {
			return argon2idConfig{}, oops.New(nil, "bad Argon2id config %q", cfg)
		}
		bits := 32
		if i == 2 {
			bits = 8
		}
		v, err := strconv.ParseUint(num, 10, bits)
		if err != nil {
			return argon2idConfig{}, oops.New(err, "failed to parse Argon2id config %q", cfg)
		}
		values[i] = v
	}

	return argon2idConfig{
		Time:      uint32(values[0]),
		Memory:    uint32(values[1]),
		Threads:   uint8(values[2]),
		KeyLength: uint32(values[3]),
	}, nil
}

// HashPassword returns the password in "algo$config$salt$hash" form.
func HashPassword(password string) string {
	return hashPasswordWithConfig(password, defaultArgon2idConfig)
}

func hashPasswordWithConfig(password string, cfg argon2idConfig) string {
	salt := make([]byte, saltLength)
	io.ReadFull(rand.Reader, salt)

	key := argon2.IDKey([]byte(password), salt, cfg.Time, cfg.Memory, cfg.Threads, cfg.KeyLength)
	return fmt.Sprintf("%s$%s$%s$%s",
		algoArgon2id,
		cfg.String(),
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(key),
	)
}

func CheckPassword(password string, stored string) (bool, error) {
	pieces := strings.Split(stored, "$")
	if len(pieces) != 4 {
		return false, oops.New(nil, "unrecognized password string format")
	}
	if pieces[0] != algoArgon2id {
		return false, oops.New(nil, "unrecognized password hash algorithm: %s", pieces[0])
	}

	cfg, err := parseArgon2idConfig(pieces[1])
	if err != nil {
		return false, err
	}
	salt, err := base64.StdEncoding.DecodeString(pieces[2])
	if err != nil {
		return false, oops.New(err, "failed to decode salt")
	}
	expected, err := base64.StdEncoding.DecodeString(pieces[3])
	if err != nil {
		return false, oops.New(err, "failed to decode hash")
	}

	key := argon2.IDKey([]byte(password), salt, cfg.Time, cfg.Memory, cfg.Threads, cfg.KeyLength)
	return subtle.ConstantTimeCompare(key, expected) == 1, nil
}

// VerifyPassword builds a Verifier for a submitted password.
func VerifyPassword(password string) Verifier {
	return func(storedHash string) error {
		ok, err := CheckPassword(password, storedHash)
		if err != nil {
			return err
		}
		if !ok {
			return ErrPasswordMismatch
		}
		return nil
	}
}
