// Package secrets resolves mailbox and SMTP passwords from the OS keychain,
// falling back to the environment.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringService groups the portal's secrets in the OS keychain.
const KeyringService = "jobportal"

var ErrNotFound = errors.New("secret not found")

// Lookup returns the password stored under account, or the value of envVar
// when the keychain has nothing.
func Lookup(account, envVar string) (string, error) {
	if strings.TrimSpace(account) != "" {
		pw, err := keyring.Get(KeyringService, account)
		if err == nil && strings.TrimSpace(pw) != "" {
			return pw, nil
		}
	}
	if envVar != "" {
		if pw := strings.TrimSpace(os.Getenv(envVar)); pw != "" {
			return pw, nil
		}
	}
	return "", fmt.Errorf("%w: keyring account %q, env %s", ErrNotFound, account, envVar)
}

func Set(account, password string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return keyring.Set(KeyringService, account, password)
}

func Delete(account string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	err := keyring.Delete(KeyringService, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}
