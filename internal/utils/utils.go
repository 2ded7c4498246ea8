package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateUUID generates a new UUID string
func GenerateUUID() string {
	return uuid.New().String()
}

// GenerateCaseNumber builds a forensic case number of the form
// FCN-YYYY-XXXXXXXX, where the suffix is 8 uppercase hex characters.
func GenerateCaseNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return fmt.Sprintf("FCN-%d-%s", now.Year(), suffix)
}
