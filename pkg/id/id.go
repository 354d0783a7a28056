package id

import (
	cryptoRand "crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu   sync.Mutex
	mono io.Reader
)

func init() {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	mono = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// New returns a time-sortable ULID string for a journal trade. IDs created
// in the same millisecond still sort in creation order.
func New() string {
	mu.Lock()
	defer mu.Unlock()

	id, err := ulid.New(ulid.Now(), mono)
	if err != nil {
		// only possible when entropy is exhausted within one millisecond
		panic(err)
	}
	return id.String()
}

// Derive returns the ULID stamped with t whose entropy is taken from a hash
// of key, so the same t and key always give the same ID. Times before the
// Unix epoch or past the ULID range are rejected.
func Derive(t time.Time, key []byte) (string, error) {
	ms := t.UnixMilli()
	if ms < 0 || uint64(ms) > ulid.MaxTime() {
		return "", fmt.Errorf("id: time %s outside the ULID range", t.UTC().Format(time.RFC3339))
	}

	sum := sha256.Sum256(key)
	var id ulid.ULID
	if err := id.SetTime(uint64(ms)); err != nil {
		return "", err
	}
	if err := id.SetEntropy(sum[:10]); err != nil {
		return "", err
	}
	return id.String(), nil
}

// Valid reports whether s parses as a ULID.
func Valid(s string) bool {
	_, err := ulid.ParseStrict(s)
	return err == nil
}
