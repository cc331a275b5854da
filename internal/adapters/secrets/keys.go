// Package secrets holds the shared key naming scheme for the secret
// store backends in its subpackages.
package secrets

import "fmt"

// PasswordKey returns the store key holding the Stopfinder password for
// the given account username. The same key works for both the pass
// backend (path inside the password store) and the file backend (path
// below the secrets root).
func PasswordKey(username string) string {
	return fmt.Sprintf("stopfinder/%s/password", username)
}
