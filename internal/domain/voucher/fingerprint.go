package voucher

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint returns a BLAKE2b-256 digest over the ordered (pin, serial)
// pairs. Two documents with the same cards in the same order share a
// fingerprint; any reordering or PIN/serial mismatch changes it.
func Fingerprint(items []VoucherItem) string {
	h, _ := blake2b.New256(nil)
	for _, it := range items {
		h.Write([]byte(Dechunk(it.PinCode)))
		h.Write([]byte{0x1f})
		h.Write([]byte(it.SerialNumber))
		h.Write([]byte{0x1e})
	}
	return hex.EncodeToString(h.Sum(nil))
}
