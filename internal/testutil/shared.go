//go:build integration

package testutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

const maxDatabaseNameLength = 48

var (
	sharedMongo     *Container
	sharedMongoErr  error
	sharedMongoOnce sync.Once

	databaseSeq atomic.Int64
)

// RunWithMongoDB starts one MongoDB container for the whole package, runs
// the tests and terminates the container. Use it from TestMain:
//
//	func TestMain(m *testing.M) {
//		os.Exit(testutil.RunWithMongoDB(m))
//	}
func RunWithMongoDB(m *testing.M) int {
	ctx := context.Background()

	sharedMongoOnce.Do(func() {
		sharedMongo, sharedMongoErr = StartMongoDB(ctx)
	})
	if sharedMongoErr != nil {
		fmt.Fprintf(os.Stderr, "integration tests need docker: %v\n", sharedMongoErr)
		return 1
	}

	code := m.Run()

	if err := sharedMongo.Cleanup(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	return code
}

// MongoURI returns the URI of the package's shared MongoDB container.
func MongoURI() string {
	if sharedMongo == nil {
		panic("shared MongoDB container not started - call RunWithMongoDB from TestMain")
	}
	return sharedMongo.URI
}

// DatabaseName returns a database name unique to the test, so tests sharing
// a container do not see each other's catalog, cache or decision log.
func DatabaseName(t testing.TB) string {
	var b strings.Builder
	b.WriteString("packing_")
	for _, r := range t.Name() {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	name := b.String()
	if len(name) > maxDatabaseNameLength {
		name = name[:maxDatabaseNameLength]
	}
	return fmt.Sprintf("%s_%d", name, databaseSeq.Add(1))
}
