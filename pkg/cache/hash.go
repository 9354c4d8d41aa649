package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// hashKey builds a stage cache key of the form prefix:hash(parts...).
// The prefix names the pipeline stage (metrics, layout, export); the
// parts are whatever identifies the entry, such as the repository path
// and commit. The full SHA-256 digest is kept so distinct repositories
// can never collide.
func hashKey(prefix string, parts ...interface{}) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash returns the SHA-256 digest of data as a 64-character hex
// string. The pipeline uses it to content-address metrics slices and
// serialized layouts when deriving downstream cache keys.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
