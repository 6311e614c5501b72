package repo_test

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/pkordes/travel-companion/testutil"
)

// TestMain applies all pending migrations to the test database once for the
// whole package so individual tests never need to think about schema state.
func TestMain(m *testing.M) {
	if err := testutil.Migrate(context.Background()); err != nil {
		log.Fatalf("TestMain: %v", err)
	}
	os.Exit(m.Run())
}
