package interview

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"
	"strconv"
	"time"
)

const tokenRandomBytes = 16

var tokenPattern = regexp.MustCompile(`^[a-z0-9]+-[a-f0-9]{32}$`)

// GenerateAccessToken produces a candidate access token: a base-36 millisecond
// timestamp joined to 128 random bits in hex. A collision needs the same
// millisecond and the same random value. The token encodes nothing about the
// interview record itself.
func GenerateAccessToken() (string, error) {
	timestamp := strconv.FormatInt(time.Now().UnixMilli(), 36)

	randomPart := make([]byte, tokenRandomBytes)

	_, err := rand.Read(randomPart)
	if err != nil {
		return "", err
	}

	return timestamp + "-" + hex.EncodeToString(randomPart), nil
}

// IsValidTokenFormat is a cheap shape check used before hitting storage.
func IsValidTokenFormat(token string) bool {
	return tokenPattern.MatchString(token)
}
