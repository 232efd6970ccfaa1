package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const giftCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// CodeGenerator генерирует случайную часть кода подарка
type CodeGenerator func(length int) (string, error)

// RandomCode возвращает строку из заглавных латинских букв и цифр (crypto/rand)
func RandomCode(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid code length %d", length)
	}
	var b strings.Builder
	b.Grow(length)
	max := big.NewInt(int64(len(giftCodeAlphabet)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate gift code: %w", err)
		}
		b.WriteByte(giftCodeAlphabet[n.Int64()])
	}
	return b.String(), nil
}
