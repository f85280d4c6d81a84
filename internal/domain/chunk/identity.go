package chunk

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// keySeparator delimits compound key components. It never appears in page
// numbers or indexes, and source paths containing it still hash uniquely
// because every component keeps its position.
const keySeparator = "|"

// ParentKey builds the compound key for a parent segment.
func ParentKey(source string, page, index int) string {
	return source + keySeparator + strconv.Itoa(page) + keySeparator + strconv.Itoa(index)
}

// ChildKey builds the compound key for a child segment from its parent's key.
func ChildKey(parentKey string, index int) string {
	return parentKey + keySeparator + strconv.Itoa(index)
}

// ID hashes a compound key into the record identifier. The hash is the single
// mechanism that makes job re-delivery safe: identical (source, page, index)
// always map to the same record, so persistence upserts instead of duplicating.
func ID(compoundKey string) string {
	h := sha256.Sum256([]byte(compoundKey))
	return hex.EncodeToString(h[:])
}
