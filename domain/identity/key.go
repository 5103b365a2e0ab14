package identity

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// Separator joins key parts before hashing. It must never change once data
// has been published, or every derived key in the warehouse shifts.
const Separator = "||"

// SurrogateKey derives a stable primary key from a tuple of normalized
// fields. Absent fields are passed as empty strings; the hash depends only
// on the field values and their order, never on row arrival order.
func SurrogateKey(parts ...string) string {
	sum := md5.Sum([]byte(strings.Join(parts, Separator)))
	return hex.EncodeToString(sum[:])
}
