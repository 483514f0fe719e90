package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"github.com/iLeonidze/OXPAHA28-bot/internal/core/domain"
)

// HashFields is the ordered field tuple a content hash covers.
var HashFields = []domain.FieldKey{
	domain.FieldCategory,
	domain.FieldArea,
	domain.FieldStreet,
	domain.FieldHouse,
	domain.FieldSection,
	domain.FieldFloor,
	domain.FieldFlat,
	domain.FieldStoreroom,
	domain.FieldParking,
}

// ContentHash fingerprints the report tuple. Every slot is length-prefixed and
// absent fields are marked, so ("1", "") and ("", "1") hash differently and
// the result is stable across processes.
func ContentHash(answers domain.Answers) string {
	h := sha256.New()
	for _, key := range HashFields {
		ans, ok := answers.Get(key)
		if !ok {
			h.Write([]byte{0})
			continue
		}
		value := ans.String()
		h.Write([]byte{1})
		h.Write([]byte(strconv.Itoa(len(value))))
		h.Write([]byte{':'})
		h.Write([]byte(value))
	}
	return hex.EncodeToString(h.Sum(nil))
}
