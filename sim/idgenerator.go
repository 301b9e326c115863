package sim

import (
	"log"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/rs/xid"
)

// IDGenerator hands out the IDs that processes, signals, and events carry.
type IDGenerator interface {
	Generate() string
}

var (
	idGeneratorLock sync.Mutex
	idGeneratorSet  bool
	idGenerator     IDGenerator
)

// UseSequentialIDs switches ID generation to a plain counter, so that the
// IDs of a run are reproducible. Must be called before the first ID is
// generated.
func UseSequentialIDs() {
	idGeneratorLock.Lock()
	defer idGeneratorLock.Unlock()

	if idGeneratorSet {
		log.Panic("cannot change the ID generator after IDs were generated")
	}

	idGenerator = &sequentialIDGenerator{}
	idGeneratorSet = true
}

// GetIDGenerator returns the generator in use, installing the xid-backed
// default on first call.
func GetIDGenerator() IDGenerator {
	idGeneratorLock.Lock()
	defer idGeneratorLock.Unlock()

	if !idGeneratorSet {
		idGenerator = xidIDGenerator{}
		idGeneratorSet = true
	}

	return idGenerator
}

// sequentialIDGenerator counts up from 1.
type sequentialIDGenerator struct {
	nextID uint64
}

func (g *sequentialIDGenerator) Generate() string {
	return strconv.FormatUint(atomic.AddUint64(&g.nextID, 1), 10)
}

// xidIDGenerator produces globally unique IDs, so that the traces of
// separate runs can land in one database without collisions.
type xidIDGenerator struct{}

func (xidIDGenerator) Generate() string {
	return xid.New().String()
}
