// Package lifecycle holds shared process lifecycle constants.
package lifecycle

import "time"

// DefaultTimeout bounds graceful shutdown of long-lived components.
const DefaultTimeout = 30 * time.Second
