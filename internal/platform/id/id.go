package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// New генерирует ID вида prefix_<миллисекунды>_<случайный хвост>.
// Такой ID удобно читать в логах и в именах файлов отчётов.
func New(prefix string) string {
	buf := make([]byte, 6)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("%s_%d_%s", prefix, time.Now().UnixMilli(), hex.EncodeToString(buf))
}
