package usecase

import (
	"math/rand"
	"time"
)

const (
	orderCodeBase     = 1_000_000_000
	orderCodeTimeMod  = 900_000
	orderCodeRandSpan = 10_000
)

// newOrderCode returns a 10-digit gateway order code built from the current
// unix millis suffix and a random component. Uniqueness is enforced by the
// store, not here.
func newOrderCode() int64 {
	millis := time.Now().UnixMilli() % orderCodeTimeMod
	return orderCodeBase + millis*orderCodeRandSpan + rand.Int63n(orderCodeRandSpan)
}
