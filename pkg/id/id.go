// Package id generates the identifiers for limit orders and executed
// transactions. Both are prefixed ULIDs: the prefix makes an id's kind
// obvious in logs and journal exports, and the ULID part sorts by
// generation time, which keeps per-account listings index-friendly.
package id

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	orderPrefix       = "ord-"
	transactionPrefix = "txn-"
)

var (
	mu      sync.Mutex
	entropy io.Reader
)

func init() {
	var seed int64
	_ = binary.Read(cryptorand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	// Monotonic entropy keeps IDs generated within the same
	// millisecond lexicographically increasing.
	entropy = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// Order returns a new limit-order id.
func Order() string {
	return orderPrefix + newULID()
}

// Transaction returns a new executed-trade id.
func Transaction() string {
	return transactionPrefix + newULID()
}

func newULID() string {
	mu.Lock()
	defer mu.Unlock()

	u, err := ulid.New(ulid.Timestamp(time.Now().UTC()), entropy)
	if err != nil {
		panic(err)
	}
	return u.String()
}
