//go:build darwin

package keychain

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

func platformStore() store {
	if _, err := exec.LookPath("security"); err != nil {
		return nil
	}
	return keychainStore{}
}

// macOS Keychain implementation using security CLI
type keychainStore struct{}

func (keychainStore) backend() StorageBackend { return BackendKeychain }

func (keychainStore) read() ([]byte, error) {
	cmd := exec.Command("security", "find-generic-password",
		"-s", serviceName,
		"-a", secretsKey,
		"-w")

	output, err := cmd.Output()
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read from keychain: %w", err)
	}

	return []byte(strings.TrimSpace(string(output))), nil
}

func (k keychainStore) write(data []byte) error {
	_ = k.remove()

	// Interactive mode keeps the secret out of the process list.
	cmd := exec.Command("security", "-i")
	cmd.Stdin = strings.NewReader(fmt.Sprintf("add-generic-password -s %q -a %q -w %q -U\n",
		serviceName, secretsKey, string(data)))

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to store in keychain: %w", err)
	}
	return nil
}

func (keychainStore) remove() error {
	cmd := exec.Command("security", "delete-generic-password",
		"-s", serviceName,
		"-a", secretsKey)

	if err := cmd.Run(); err != nil {
		if isNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete from keychain: %w", err)
	}
	return nil
}

// isNotFound reports security's exit status 44 (item not found).
func isNotFound(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr) && exitErr.ExitCode() == 44
}
