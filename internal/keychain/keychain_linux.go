//go:build linux

package keychain

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

func platformStore() store {
	if _, err := exec.LookPath("secret-tool"); err != nil {
		return nil
	}
	return secretToolStore{}
}

// Linux libsecret implementation using secret-tool CLI
type secretToolStore struct{}

func (secretToolStore) backend() StorageBackend { return BackendSecretTool }

func (secretToolStore) attrs() []string {
	return []string{"service", serviceName, "account", secretsKey}
}

func (s secretToolStore) read() ([]byte, error) {
	cmd := exec.Command("secret-tool", append([]string{"lookup"}, s.attrs()...)...)

	output, err := cmd.Output()
	if err != nil {
		// lookup exits 1 with no output when the item does not exist
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(bytes.TrimSpace(exitErr.Stderr)) == 0 {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read from secret-tool: %w", err)
	}
	if len(output) == 0 {
		return nil, ErrNotFound
	}
	return output, nil
}

func (s secretToolStore) write(data []byte) error {
	// store reads the secret from stdin, keeping it out of the process list
	args := append([]string{"store", "--label=sfbulk Connected App"}, s.attrs()...)
	cmd := exec.Command("secret-tool", args...)
	cmd.Stdin = strings.NewReader(string(data))

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to store in secret-tool: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

func (s secretToolStore) remove() error {
	cmd := exec.Command("secret-tool", append([]string{"clear"}, s.attrs()...)...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to delete from secret-tool: %w", err)
	}
	return nil
}
