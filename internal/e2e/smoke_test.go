package e2e

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmokeFlow(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)
	tenant := newFakeTenant(t)

	stdout, stderr, err := runSF(t, binaryPath, home,
		"login",
		"--base-url", tenant.URL,
		"--username", "parent@example.com",
		"--password", "hunter2",
	)
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "Logged in as parent@example.com")

	stdout, stderr, err = runSF(t, binaryPath, home, "schedules", "--json")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "Alice")

	stdout, stderr, err = runSF(t, binaryPath, home, "logout")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "Logged out parent@example.com")
}

func buildBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "sf-e2e")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/sf")
	cmd.Dir = repoRoot(t)

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "build sf binary: %s", string(output))
	return binaryPath
}

func runSF(t *testing.T, binaryPath, home string, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(), "HOME="+home)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func repoRoot(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}

func newFakeTenant(t *testing.T) *httptest.Server {
	t.Helper()

	server := httptest.NewUnstartedServer(nil)
	server.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/$xcom/getStopfinder.asp":
			_, _ = fmt.Fprint(w, server.URL)
		case "/tokens":
			_, _ = fmt.Fprint(w, `{"token":"token-1"}`)
		case "/systems/apiversions":
			_, _ = fmt.Fprint(w, `[{"clientId":"client-1"}]`)
		case "/students":
			date := time.Now().Add(24 * time.Hour).Format("2006-01-02")
			_, _ = fmt.Fprintf(w, `[{"date":%q,"studentSchedules":[{"riderId":"r-1","firstName":"Alice","lastName":"Smith","trips":[{"name":"AM Route","busNumber":"12","pickUpTime":"%sT07:40:00","toSchool":true}]}]}]`, date, date)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	server.Start()
	t.Cleanup(server.Close)

	return server
}
