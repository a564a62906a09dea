package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

func newID() string {
	bytes := make([]byte, 16)
	_, _ = rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// sharedFileID derives a stable identifier for one file inside a share.
// Hashing the full relative path keeps two shared files with the same
// basename in different subdirectories addressable.
func sharedFileID(shareID, relPath string) string {
	sum := sha256.Sum256([]byte(shareID + ":" + relPath))
	return hex.EncodeToString(sum[:])[:16]
}
