package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/feral-file/ff-token-ledger/internal/domain"
	"github.com/feral-file/ff-token-ledger/internal/ledger"
)

var (
	testDB      *gorm.DB
	pgContainer *postgres.PostgresContainer
)

// TestMain sets up the test database before running tests
func TestMain(m *testing.M) {
	ctx := context.Background()

	// Check if we should use an external database (for CI or local development)
	dbHost := os.Getenv("TEST_DB_HOST")
	dbPort := os.Getenv("TEST_DB_PORT")
	dbUser := os.Getenv("TEST_DB_USER")
	dbPassword := os.Getenv("TEST_DB_PASSWORD")
	dbName := os.Getenv("TEST_DB_NAME")

	var dsn string
	var err error

	if dbHost != "" {
		// Use external database
		if dbPort == "" {
			dbPort = "5432"
		}
		if dbUser == "" {
			dbUser = "postgres"
		}
		if dbPassword == "" {
			dbPassword = "postgres"
		}
		if dbName == "" {
			dbName = "test_db"
		}

		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			dbHost, dbPort, dbUser, dbPassword, dbName)

		fmt.Printf("Using external database: %s:%s/%s\n", dbHost, dbPort, dbName)
	} else {
		// Start a PostgreSQL container for testing
		pgContainer, err = postgres.Run(ctx,
			"postgres:18-alpine",
			postgres.WithDatabase("test_db"),
			postgres.WithUsername("postgres"),
			postgres.WithPassword("postgres"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second)),
		)
		if err != nil {
			fmt.Printf("Failed to start PostgreSQL container: %v\n", err)
			os.Exit(1)
		}

		dsn, err = pgContainer.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			fmt.Printf("Failed to get connection string: %v\n", err)
			if err := pgContainer.Terminate(ctx); err != nil {
				fmt.Printf("Failed to terminate PostgreSQL container: %v\n", err)
			}
			os.Exit(1)
		}

		fmt.Printf("Started PostgreSQL container\n")
	}

	// Connect to the database
	testDB, err = gorm.Open(pgdriver.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		fmt.Printf("Failed to connect to database: %v\n", err)
		if pgContainer != nil {
			if err := pgContainer.Terminate(ctx); err != nil {
				fmt.Printf("Failed to terminate PostgreSQL container: %v\n", err)
			}
		}
		os.Exit(1)
	}

	// Create the ledger tables
	if err := Migrate(testDB); err != nil {
		fmt.Printf("Failed to migrate database: %v\n", err)
		if pgContainer != nil {
			if err := pgContainer.Terminate(ctx); err != nil {
				fmt.Printf("Failed to terminate PostgreSQL container: %v\n", err)
			}
		}
		os.Exit(1)
	}

	// Run tests
	code := m.Run()

	// Cleanup
	if pgContainer != nil {
		if err := pgContainer.Terminate(ctx); err != nil {
			fmt.Printf("Failed to terminate PostgreSQL container: %v\n", err)
		}
	}

	os.Exit(code)
}

// initPGTestDB returns a store backed by a transaction that is rolled back
// when the test finishes, so tests never see each other's rows
func initPGTestDB(t *testing.T) Store {
	tx := testDB.Begin()
	require.NotNil(t, tx)
	require.NoError(t, tx.Error)

	t.Cleanup(func() {
		tx.Rollback()
	})

	return NewPGStore(tx)
}

func testSnapshot() ledger.Snapshot {
	return ledger.Snapshot{
		Administrator:       "0xadmin",
		Name:                "Gallery Ledger",
		BaseMetadataLocator: "https://meta.example.com/",
		TransfersEnabled:    false,
		MarketEnabled:       false,
		Classes: []ledger.TokenClass{
			{ID: 0, MetadataSuffix: "gold.json"},
			{ID: 1, MetadataSuffix: "silver.json"},
		},
		Balances: []ledger.BalanceEntry{
			{Holder: "0xalice", ClassID: 0, Amount: 100},
			{Holder: "0xbob", ClassID: 1, Amount: 7},
		},
	}
}

func TestLoadSnapshot_Empty(t *testing.T) {
	if testDB == nil {
		t.Fatal("Test database not initialized")
	}
	s := initPGTestDB(t)

	snap, err := s.LoadSnapshot(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestInitAndLoadSnapshot(t *testing.T) {
	if testDB == nil {
		t.Fatal("Test database not initialized")
	}
	s := initPGTestDB(t)
	ctx := context.Background()

	seed := testSnapshot()
	require.NoError(t, s.Init(ctx, seed))

	loaded, err := s.LoadSnapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, seed.Administrator, loaded.Administrator)
	assert.Equal(t, seed.Name, loaded.Name)
	assert.Equal(t, seed.BaseMetadataLocator, loaded.BaseMetadataLocator)
	assert.Equal(t, seed.TransfersEnabled, loaded.TransfersEnabled)
	assert.Equal(t, seed.MarketEnabled, loaded.MarketEnabled)
	assert.Equal(t, seed.Classes, loaded.Classes)
	assert.Equal(t, seed.Balances, loaded.Balances)
}

func TestApplyMutation_NewClassAndBalances(t *testing.T) {
	if testDB == nil {
		t.Fatal("Test database not initialized")
	}
	s := initPGTestDB(t)
	ctx := context.Background()

	require.NoError(t, s.Init(ctx, testSnapshot()))

	mut := Mutation{
		Classes: []ClassWrite{{ID: 2, MetadataSuffix: "bronze.json"}},
		Balances: []BalanceWrite{
			{Holder: "0xcarol", ClassID: 2, Amount: 25},
		},
	}
	require.NoError(t, s.ApplyMutation(ctx, mut))

	loaded, err := s.LoadSnapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	require.Len(t, loaded.Classes, 3)
	assert.Equal(t, ledger.TokenClass{ID: 2, MetadataSuffix: "bronze.json"}, loaded.Classes[2])
	assert.Contains(t, loaded.Balances, ledger.BalanceEntry{Holder: "0xcarol", ClassID: 2, Amount: 25})
}

func TestApplyMutation_UpsertBalance(t *testing.T) {
	if testDB == nil {
		t.Fatal("Test database not initialized")
	}
	s := initPGTestDB(t)
	ctx := context.Background()

	require.NoError(t, s.Init(ctx, testSnapshot()))

	// Overwrite an existing row
	mut := Mutation{
		Balances: []BalanceWrite{{Holder: "0xalice", ClassID: 0, Amount: 60}},
	}
	require.NoError(t, s.ApplyMutation(ctx, mut))

	loaded, err := s.LoadSnapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Contains(t, loaded.Balances, ledger.BalanceEntry{Holder: "0xalice", ClassID: 0, Amount: 60})
	assert.Len(t, loaded.Balances, 2)
}

func TestApplyMutation_ZeroAmountDeletesRow(t *testing.T) {
	if testDB == nil {
		t.Fatal("Test database not initialized")
	}
	s := initPGTestDB(t)
	ctx := context.Background()

	require.NoError(t, s.Init(ctx, testSnapshot()))

	mut := Mutation{
		Balances: []BalanceWrite{{Holder: "0xalice", ClassID: 0, Amount: 0}},
	}
	require.NoError(t, s.ApplyMutation(ctx, mut))

	loaded, err := s.LoadSnapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	require.Len(t, loaded.Balances, 1)
	assert.Equal(t, ledger.BalanceEntry{Holder: "0xbob", ClassID: 1, Amount: 7}, loaded.Balances[0])
}

func TestApplyMutation_ZeroAmountForMissingRow(t *testing.T) {
	if testDB == nil {
		t.Fatal("Test database not initialized")
	}
	s := initPGTestDB(t)
	ctx := context.Background()

	require.NoError(t, s.Init(ctx, testSnapshot()))

	// Deleting a row that does not exist is not an error
	mut := Mutation{
		Balances: []BalanceWrite{{Holder: "0xnobody", ClassID: 0, Amount: 0}},
	}
	require.NoError(t, s.ApplyMutation(ctx, mut))

	loaded, err := s.LoadSnapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Len(t, loaded.Balances, 2)
}

func TestApplyMutation_StateUpdate(t *testing.T) {
	if testDB == nil {
		t.Fatal("Test database not initialized")
	}
	s := initPGTestDB(t)
	ctx := context.Background()

	require.NoError(t, s.Init(ctx, testSnapshot()))

	enabled := true
	newName := "Renamed Ledger"
	newAdmin := "0xsuccessor"
	mut := Mutation{
		State: &StateUpdate{
			Administrator:    &newAdmin,
			Name:             &newName,
			TransfersEnabled: &enabled,
		},
	}
	require.NoError(t, s.ApplyMutation(ctx, mut))

	loaded, err := s.LoadSnapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, domain.Address("0xsuccessor"), loaded.Administrator)
	assert.Equal(t, "Renamed Ledger", loaded.Name)
	assert.True(t, loaded.TransfersEnabled)
	// Field left nil is untouched
	assert.False(t, loaded.MarketEnabled)
}

func TestApplyMutation_EventJournal(t *testing.T) {
	if testDB == nil {
		t.Fatal("Test database not initialized")
	}
	s := initPGTestDB(t)
	ctx := context.Background()

	require.NoError(t, s.Init(ctx, testSnapshot()))

	emitted := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	amount := uint64(5)
	mut := Mutation{
		Events: []domain.LedgerEvent{
			{
				Type:      domain.EventTypeMinted,
				Caller:    "0xadmin",
				Holder:    "0xalice",
				ClassID:   domain.ClassIDPtr(0),
				Amount:    &amount,
				Timestamp: emitted,
			},
			{
				Type:      domain.EventTypeTransfersGateSet,
				Caller:    "0xadmin",
				Enabled:   domain.BoolPtr(true),
				Timestamp: emitted.Add(time.Second),
			},
		},
	}
	require.NoError(t, s.ApplyMutation(ctx, mut))

	pg := s.(*pgStore)
	var rows []struct {
		EventType string
		EmittedAt time.Time
	}
	require.NoError(t, pg.db.Table("ledger_events").
		Select("event_type, emitted_at").
		Order("id ASC").
		Scan(&rows).Error)

	require.Len(t, rows, 2)
	assert.Equal(t, string(domain.EventTypeMinted), rows[0].EventType)
	assert.Equal(t, string(domain.EventTypeTransfersGateSet), rows[1].EventType)
	assert.True(t, rows[0].EmittedAt.Equal(emitted))
}

func TestApplyMutation_Atomic(t *testing.T) {
	if testDB == nil {
		t.Fatal("Test database not initialized")
	}
	s := initPGTestDB(t)
	ctx := context.Background()

	require.NoError(t, s.Init(ctx, testSnapshot()))

	// Re-creating an existing class id violates the primary key; the balance
	// write in the same mutation must not survive
	mut := Mutation{
		Classes:  []ClassWrite{{ID: 0, MetadataSuffix: "dup.json"}},
		Balances: []BalanceWrite{{Holder: "0xcarol", ClassID: 0, Amount: 9}},
	}
	require.Error(t, s.ApplyMutation(ctx, mut))

	loaded, err := s.LoadSnapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Len(t, loaded.Classes, 2)
	assert.NotContains(t, loaded.Balances, ledger.BalanceEntry{Holder: "0xcarol", ClassID: 0, Amount: 9})
}

func TestInit_Twice(t *testing.T) {
	if testDB == nil {
		t.Fatal("Test database not initialized")
	}
	s := initPGTestDB(t)
	ctx := context.Background()

	require.NoError(t, s.Init(ctx, testSnapshot()))
	assert.Error(t, s.Init(ctx, testSnapshot()))
}
