package service

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"hash"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
)

const defaultPBKDF2Iterations = 600000

// HashPassword produces the hash stored for new accounts.
func HashPassword(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword compares plaintext with a stored hash. Besides bcrypt it accepts the
// "pbkdf2:<alg>[:<iterations>]$salt$hex" and "scrypt:<n>:<r>:<p>$salt$hex" formats found in
// legacy user files.
func CheckPassword(stored, plaintext string) bool {
	switch {
	case stored == "":
		return false
	case strings.HasPrefix(stored, "$2"):
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(plaintext)) == nil
	case strings.HasPrefix(stored, "pbkdf2:"), strings.HasPrefix(stored, "scrypt:"):
		return checkSaltedHash(stored, plaintext)
	default:
		return false
	}
}

func checkSaltedHash(stored, plaintext string) bool {
	parts := strings.SplitN(stored, "$", 3)
	if len(parts) != 3 {
		return false
	}
	method, salt, expectedHex := parts[0], parts[1], parts[2]

	expected, err := hex.DecodeString(expectedHex)
	if err != nil || len(expected) == 0 {
		return false
	}

	var derived []byte
	switch {
	case strings.HasPrefix(method, "pbkdf2:"):
		derived = derivePBKDF2(method, plaintext, salt)
	case strings.HasPrefix(method, "scrypt:"):
		derived = deriveScrypt(method, plaintext, salt, len(expected))
	}
	if derived == nil {
		return false
	}

	return subtle.ConstantTimeCompare(derived, expected) == 1
}

func derivePBKDF2(method, plaintext, salt string) []byte {
	args := strings.Split(strings.TrimPrefix(method, "pbkdf2:"), ":")

	var newHash func() hash.Hash
	switch args[0] {
	case "sha256", "":
		newHash = sha256.New
	case "sha512":
		newHash = sha512.New
	case "sha1":
		newHash = sha1.New
	default:
		return nil
	}

	iterations := defaultPBKDF2Iterations
	if len(args) > 1 {
		parsed, err := strconv.Atoi(args[1])
		if err != nil || parsed <= 0 {
			return nil
		}
		iterations = parsed
	}

	return pbkdf2.Key([]byte(plaintext), []byte(salt), iterations, newHash().Size(), newHash)
}

func deriveScrypt(method, plaintext, salt string, keyLen int) []byte {
	args := strings.Split(strings.TrimPrefix(method, "scrypt:"), ":")
	if len(args) != 3 {
		return nil
	}
	params := make([]int, 0, 3)
	for _, arg := range args {
		value, err := strconv.Atoi(arg)
		if err != nil || value <= 0 {
			return nil
		}
		params = append(params, value)
	}

	derived, err := scrypt.Key([]byte(plaintext), []byte(salt), params[0], params[1], params[2], keyLen)
	if err != nil {
		return nil
	}
	return derived
}
