package utils

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ==================== UUID ====================

func GenerateUUID() uuid.UUID {
	return uuid.New()
}

func ParseUUID(uuidStr string) (uuid.UUID, error) {
	return uuid.Parse(uuidStr)
}

// ==================== FILE NAMES ====================

// GenerateFileName builds "<uuid>-<unix millis><ext>", keeping the lower-cased
// extension of the original name.
func GenerateFileName(original string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(original))
	return fmt.Sprintf("%s-%d%s", GenerateUUID(), now.UnixMilli(), ext)
}
