package errtracker

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/iulianpascalau/client-observability/services/engine/common"
)

const (
	numFingerprintStackLines = 3
	fingerprintLength        = 16
)

// ComputeFingerprint hashes the source, the message and the first stack lines of an error.
// Identical inputs always produce the same fingerprint.
func ComputeFingerprint(source common.ErrorSource, message string, stack string) string {
	content := string(source) + ":" + message + ":" + firstStackLines(stack, numFingerprintStackLines)
	hash := sha256.Sum256([]byte(content))

	return hex.EncodeToString(hash[:])[:fingerprintLength]
}

func firstStackLines(stack string, numLines int) string {
	if len(stack) == 0 {
		return ""
	}

	lines := strings.Split(stack, "\n")
	if len(lines) > numLines {
		lines = lines[:numLines]
	}
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}

	return strings.Join(lines, "\n")
}
