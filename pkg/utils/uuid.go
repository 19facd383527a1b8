package utils

import (
	"fmt"

	"github.com/google/uuid"
)

// ParseUUID parses a string into a UUID
func ParseUUID(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}

// QuotationNumber formats a sequence number as QT-000001
func QuotationNumber(n int) string {
	return fmt.Sprintf("QT-%06d", n)
}
