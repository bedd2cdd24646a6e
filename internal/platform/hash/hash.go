package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
)

// File читает файл и считает SHA-256, заодно возвращает размер.
func File(path string) (sum string, size int64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
