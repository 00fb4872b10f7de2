package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// ImageKeyOpts are the render inputs that affect an image.
type ImageKeyOpts struct {
	Template  string `json:"template"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Watermark bool   `json:"watermark"`
	Fonts     string `json:"fonts"`
}

// ImageKey returns the cache key for an image of content rendered with opts.
// content is any JSON-serializable value describing the resolved entry.
func ImageKey(content any, opts ImageKeyOpts) string {
	return hashKey("image", content, opts)
}

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return fmt.Sprintf("%s:%s", prefix, Hash(data))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
