package domain

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"
)

// Token sizes in random bytes. The hex form is twice as long.
const (
	DownloadTokenBytes = 16
	LoginTokenBytes    = 32
	SessionTokenBytes  = 64
)

var downloadTokenPattern = regexp.MustCompile(`^[a-f0-9]{32}$`)

// GenerateToken returns byteLength bytes from the system CSPRNG, hex encoded.
// A failing entropy source is unrecoverable, so it panics.
func GenerateToken(byteLength int) string {
	raw := make([]byte, byteLength)
	if _, err := rand.Read(raw); err != nil {
		panic("domain: entropy source failed: " + err.Error())
	}
	return hex.EncodeToString(raw)
}

// ValidDownloadToken reports whether s has the shape of a download token.
func ValidDownloadToken(s string) bool {
	return downloadTokenPattern.MatchString(s)
}
