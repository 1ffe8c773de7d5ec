package services

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// referencePrefix + 12 верхних hex-символов (48 бит энтропии).
// Коллизии статистически невозможны на ожидаемых объемах,
// поэтому сверка с БД не выполняется.
const referencePrefix = "FLW-"

// GenerateTransactionReference генерирует уникальную ссылку транзакции
// из криптографического источника случайности
func GenerateTransactionReference() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand на поддерживаемых платформах не возвращает ошибок
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return referencePrefix + strings.ToUpper(hex.EncodeToString(buf))
}
