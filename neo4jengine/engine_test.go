package neo4jengine

import (
	"context"
	"testing"

	"github.com/go-tempograph/go-tempograph/enginetest"
	"github.com/go-tempograph/go-tempograph/internal/dbtest"
)

func TestEngine(t *testing.T) {
	ctx := context.Background()
	driver := dbtest.SetupNeo4j(t)
	if err := BootstrapDatabase(ctx, driver, "tempograph"); err != nil {
		t.Fatal("Failed to bootstrap database:", err)
	}
	engine, err := NewEngine(ctx, driver, "tempograph")
	if err != nil {
		t.Fatal(err)
	}
	enginetest.Run(t, engine)
}

func TestBootstrapDatabaseIsIdempotent(t *testing.T) {
	ctx := context.Background()
	driver := dbtest.SetupNeo4j(t)
	if err := BootstrapDatabase(ctx, driver, "tempograph"); err != nil {
		t.Fatal("First bootstrap failed:", err)
	}
	if err := BootstrapDatabase(ctx, driver, "tempograph"); err != nil {
		t.Fatal("Second bootstrap failed:", err)
	}
}
