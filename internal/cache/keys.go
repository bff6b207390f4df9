package cache

import (
	"fmt"

	"github.com/google/uuid"
)

func ApplicationKey(id uuid.UUID) string {
	return fmt.Sprintf("app:%s", id)
}

func RateLimitKey(subject string) string {
	return fmt.Sprintf("ratelimit:%s", subject)
}
