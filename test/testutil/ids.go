package testutil

import (
	"fmt"
	"sync/atomic"
	"time"
)

var idCounter atomic.Int64

// UniqueID builds an identifier that stays unique across test runs against
// a shared database.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d-%d", prefix, time.Now().UnixNano(), idCounter.Add(1))
}
