package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/julianstephens/logbook/internal/constants"
	"github.com/julianstephens/logbook/internal/keyring"
	"github.com/julianstephens/logbook/internal/storage"
	"github.com/julianstephens/logbook/internal/storage/postgres"
	"github.com/julianstephens/logbook/internal/storage/redis"
	"github.com/julianstephens/logbook/internal/storage/sqlite"
)

// IsPostgres reports whether dsn names a PostgreSQL server.
func IsPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// IsRedis reports whether dsn names a Redis server.
func IsRedis(dsn string) bool {
	return strings.HasPrefix(dsn, "redis://") || strings.HasPrefix(dsn, "rediss://")
}

// OpenEngine picks the storage engine for dsn. The engine is returned
// unopened; callers run Init or Load.
//
//	memory                    in-process map, nothing persisted
//	keyring                   connection string read from the OS keyring
//	postgres://, postgresql:// PostgreSQL (no embedded passwords)
//	redis://, rediss://        Redis
//	anything else             sqlite database file
func OpenEngine(dsn string) (storage.Engine, error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "":
		return nil, fmt.Errorf("no store configured")
	case dsn == constants.StoreMemory:
		return storage.NewMemoryEngine(), nil
	case dsn == constants.StoreKeyring:
		connStr, err := keyringConnString()
		if err != nil {
			return nil, err
		}
		return openServer(connStr, true)
	case IsPostgres(dsn), IsRedis(dsn):
		return openServer(dsn, false)
	}

	path, err := ExpandPath(dsn)
	if err != nil {
		return nil, err
	}
	return sqlite.NewStore(path), nil
}

// keyringConnString prefers the environment so CI can bypass the keyring.
func keyringConnString() (string, error) {
	if connStr := os.Getenv(constants.EnvDBConnection); connStr != "" {
		return connStr, nil
	}
	connStr, err := keyring.ConnectionString()
	if errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("no connection string in keyring, run 'logbook keyring set' first")
	}
	return connStr, err
}

// openServer builds a server-backed engine. trusted connection strings come
// from the keyring or environment and may carry a password.
func openServer(connStr string, trusted bool) (storage.Engine, error) {
	switch {
	case IsRedis(connStr):
		return redis.New(connStr), nil
	case IsPostgres(connStr) || strings.Contains(connStr, "host="):
		if _, err := postgres.ValidateConnString(connStr); err != nil {
			if !(trusted && errors.Is(err, postgres.ErrEmbeddedCredentials)) {
				return nil, err
			}
		}
		return postgres.New(connStr), nil
	}
	return nil, fmt.Errorf("unsupported connection string, expected postgres:// or redis://")
}

// ExpandPath resolves a leading "~" against the home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
