// Package keyring keeps store connection strings out of config files.
package keyring

import (
	"errors"
	"fmt"
	"strings"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/julianstephens/logbook/internal/constants"
)

var (
	ErrNotFound           = errors.New("no connection string stored in the system keyring")
	ErrKeyringUnavailable = errors.New("system keyring is not available")
	ErrEmptySecret        = errors.New("connection string cannot be empty")
)

// Account names under the logbook service. The default account holds the
// connection string used by the "keyring" store selector.
const (
	AccountDatabase = constants.DefaultKeyringUser
)

// Get returns the secret stored for account.
func Get(account string) (string, error) {
	secret, err := gokeyring.Get(constants.AppName, account)
	if err != nil {
		if errors.Is(err, gokeyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return secret, nil
}

// Set stores secret for account, replacing any previous value.
func Set(account, secret string) error {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return ErrEmptySecret
	}
	if err := gokeyring.Set(constants.AppName, account, secret); err != nil {
		return fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return nil
}

// Delete removes the secret for account. Deleting a missing entry is not an error.
func Delete(account string) error {
	if err := gokeyring.Delete(constants.AppName, account); err != nil {
		if errors.Is(err, gokeyring.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return nil
}

// ConnectionString is Get for the default database account.
func ConnectionString() (string, error) {
	return Get(AccountDatabase)
}

// SetConnectionString is Set for the default database account.
func SetConnectionString(connStr string) error {
	return Set(AccountDatabase, connStr)
}

// DeleteConnectionString is Delete for the default database account.
func DeleteConnectionString() error {
	return Delete(AccountDatabase)
}

// IsAvailable probes the keyring with a lookup that is expected to miss.
func IsAvailable() bool {
	_, err := gokeyring.Get(constants.AppName, "__probe__")
	return err == nil || errors.Is(err, gokeyring.ErrNotFound)
}
