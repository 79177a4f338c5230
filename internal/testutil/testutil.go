package testutil

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dom/todo-api/internal/api"
	"github.com/dom/todo-api/internal/config"
	"github.com/dom/todo-api/internal/repository"
	"github.com/dom/todo-api/internal/repository/memory"
	repoMongo "github.com/dom/todo-api/internal/repository/mongo"
	repoPostgres "github.com/dom/todo-api/internal/repository/postgres"
	"github.com/dom/todo-api/internal/service"
	"github.com/dom/todo-api/internal/websocket"
	"github.com/testcontainers/testcontainers-go"
	tcMongo "github.com/testcontainers/testcontainers-go/modules/mongodb"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB manages a testcontainers PostgreSQL instance
type TestDB struct {
	Container testcontainers.Container
	DB        *gorm.DB
	DSN       string
}

// NewTestDB creates a new PostgreSQL testcontainer and returns a connection
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	skipInShortMode(t)

	ctx := context.Background()

	container, err := tcPostgres.Run(ctx,
		"postgres:15-alpine",
		tcPostgres.WithDatabase("test_todo_app"),
		tcPostgres.WithUsername("test"),
		tcPostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	testDB := &TestDB{Container: container}
	t.Cleanup(func() {
		testDB.Cleanup()
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	db, err := gorm.Open(gormPostgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}

	if err := repoPostgres.Migrate(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	testDB.DB = db
	testDB.DSN = dsn
	return testDB
}

// Cleanup terminates the container
func (tdb *TestDB) Cleanup() {
	if tdb.Container != nil {
		tdb.Container.Terminate(context.Background())
	}
}

// Truncate clears all tables for test isolation
func (tdb *TestDB) Truncate(t *testing.T) {
	t.Helper()

	for _, table := range []string{"tasks", "users"} {
		if err := tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
			t.Logf("warning: failed to truncate %s: %v", table, err)
		}
	}
}

// TestMongo manages a testcontainers MongoDB instance
type TestMongo struct {
	Container testcontainers.Container
	Client    *mongo.Client
	DB        *mongo.Database
}

// NewTestMongo starts MongoDB and returns a database with indexes in place
func NewTestMongo(t *testing.T) *TestMongo {
	t.Helper()
	skipInShortMode(t)

	ctx := context.Background()

	container, err := tcMongo.Run(ctx, "mongo:7")
	if err != nil {
		t.Fatalf("failed to start mongodb container: %v", err)
	}

	tm := &TestMongo{Container: container}
	t.Cleanup(func() {
		if tm.Client != nil {
			tm.Client.Disconnect(context.Background())
		}
		container.Terminate(context.Background())
	})

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get mongodb connection string: %v", err)
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("failed to connect to mongodb: %v", err)
	}
	tm.Client = client
	tm.DB = client.Database("test_todo_app")

	if err := repoMongo.EnsureIndexes(ctx, tm.DB); err != nil {
		t.Fatalf("failed to create indexes: %v", err)
	}

	return tm
}

// Truncate removes all documents while keeping indexes
func (tm *TestMongo) Truncate(t *testing.T) {
	t.Helper()

	ctx := context.Background()
	for _, name := range []string{"tasks", "users"} {
		if _, err := tm.DB.Collection(name).DeleteMany(ctx, map[string]interface{}{}); err != nil {
			t.Logf("warning: failed to truncate %s: %v", name, err)
		}
	}
}

func skipInShortMode(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}
}

// TestConfig returns a configuration suitable for testing
func TestConfig() *config.Config {
	return &config.Config{
		Port:            "0", // Random port
		Environment:     "test",
		AllowedOrigins:  []string{"http://localhost:5173"},
		StoreDriver:     config.StoreDriverMemory,
		JWTSecret:       "test-jwt-secret-key-for-testing-only",
		JWTIssuer:       "todo-api-test",
		AccessTokenTTL:  30 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		BcryptCost:      bcrypt.MinCost,
		HashConcurrency: 4,
	}
}

// TestServer holds all components for integration testing
type TestServer struct {
	Server   *httptest.Server
	Repos    *repository.Repositories
	Users    *memory.UserRepository
	Services *service.Services
	Hub      *websocket.Hub
	Config   *config.Config
}

// NewTestServer creates a complete test server backed by the in-memory store
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	cfg := TestConfig()
	users := memory.NewUserRepository()
	repos := &repository.Repositories{
		User: users,
		Task: memory.NewTaskRepository(),
	}

	hub := websocket.NewHub()
	go hub.Run()

	services, err := service.NewServices(repos, cfg, hub)
	if err != nil {
		t.Fatalf("failed to create services: %v", err)
	}
	router := api.NewRouter(services, hub, cfg)

	server := httptest.NewServer(router)

	ts := &TestServer{
		Server:   server,
		Repos:    repos,
		Users:    users,
		Services: services,
		Hub:      hub,
		Config:   cfg,
	}

	t.Cleanup(func() {
		hub.Stop()
		server.Close()
	})

	return ts
}

// BaseURL returns the test server's base URL
func (ts *TestServer) BaseURL() string {
	return ts.Server.URL
}

// APIURL returns the full API URL for a given path
func (ts *TestServer) APIURL(path string) string {
	return fmt.Sprintf("%s/api/v1%s", ts.Server.URL, path)
}

// WebSocketURL returns the WebSocket URL with token
func (ts *TestServer) WebSocketURL(token string) string {
	wsURL := "ws" + ts.Server.URL[4:] // Replace "http" with "ws"
	return fmt.Sprintf("%s/api/v1/ws?token=%s", wsURL, token)
}
