package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashIdentifier 加盐哈希，限流 key 里不保存原始 IP，盐 + ":" + value
func HashIdentifier(salt, value string) string {
	sum := sha256.Sum256([]byte(salt + ":" + value))
	return hex.EncodeToString(sum[:16])
}
