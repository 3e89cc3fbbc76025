//go:build !darwin && !linux

package keychain

// Secrets stay in the config file on platforms without a supported store.
func platformStore() store {
	return nil
}
