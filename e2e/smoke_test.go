//go:build e2e

package e2e

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	repoRootRel = ".." // relative to ./e2e
	mainPkgRel  = "./cmd/climate-api"
)

// seedSQL mirrors the layout of Resources/hawaii.sqlite.
var seedSQL = strings.Join([]string{
	"CREATE TABLE station (id INTEGER PRIMARY KEY, station TEXT, name TEXT, latitude FLOAT, longitude FLOAT, elevation FLOAT);",
	"CREATE TABLE measurement (id INTEGER PRIMARY KEY, station TEXT, date TEXT, prcp FLOAT, tobs FLOAT);",
	"INSERT INTO station (station, name, latitude, longitude, elevation) VALUES " +
		"('USC00519397', 'WAIKIKI 717.2, HI US', 21.2716, -157.8168, 3.0), " +
		"('USC00519281', 'WAIHEE 837.5, HI US', 21.45167, -157.84889, 32.9);",
	"INSERT INTO measurement (station, date, prcp, tobs) VALUES " +
		"('USC00519281', '2016-08-22', 0.4, 74), " +
		"('USC00519281', '2016-08-23', 1.79, 77), " +
		"('USC00519281', '2017-08-18', NULL, 79), " +
		"('USC00519397', '2017-08-23', 0.0, 81);",
}, " ")

func TestSmoke_Routes(t *testing.T) {
	repoRoot := repoRootPath(t)
	sqlitePath := startSQLite(t)

	bin := buildBinary(t, repoRoot)
	host, port := pickFreeAddr(t)
	logDir := t.TempDir()

	cmd := exec.Command(bin, "serve")
	cmd.Dir = t.TempDir()
	cmd.Env = append(os.Environ(),
		"LOG_LEVEL=info",
		"CLIMATE_SERVER_HOST="+host,
		"CLIMATE_SERVER_PORT="+port,
		"DB_DIALECT=sqlite",
		"DB_NAME="+sqlitePath,
		"LOGS_PATH="+filepath.Join(logDir, "climate-api.log"),
		"ACCESS_LOG_PATH="+filepath.Join(logDir, "access.log"),
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	require.NoError(t, cmd.Start(), "start server")
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		_, _ = cmd.Process.Wait()
	})

	client := &http.Client{Timeout: 2 * time.Second}
	base := "http://" + net.JoinHostPort(host, port)

	waitForOK(t, client, base+"/healthz", 10*time.Second)

	tests := []struct {
		path string
		code int
		body string
	}{
		{path: "/api/v1.0/stations", code: http.StatusOK,
			body: `[{"station":"USC00519397","name":"WAIKIKI 717.2, HI US","latitude":21.2716,"longitude":-157.8168},` +
				`{"station":"USC00519281","name":"WAIHEE 837.5, HI US","latitude":21.45167,"longitude":-157.84889}]`},
		{path: "/api/v1.0/tobs", code: http.StatusOK,
			body: `[{"date":"2016-08-23","tobs":77},{"date":"2017-08-18","tobs":79}]`},
		{path: "/api/v1.0/2017-01-01", code: http.StatusOK,
			body: `[{"TMIN":79,"TAVG":80,"TMAX":81}]`},
		{path: "/api/v1.0/not-a-date", code: http.StatusNotFound,
			body: `{"error":"not-a-date is not a valid date."}`},
		{path: "/api/v1.0/2020-01-01/bad-end", code: http.StatusNotFound,
			body: `{"error":"bad-end is not a valid date."}`},
	}

	for _, tt := range tests {
		code, body := get(t, client, base+tt.path)
		assert.Equal(t, tt.code, code, tt.path)
		assert.JSONEq(t, tt.body, body, tt.path)
	}

	code, body := get(t, client, base+"/api/v1.0/precipitation")
	assert.Equal(t, http.StatusOK, code)
	var precipitation []map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &precipitation))
	assert.Len(t, precipitation, 4)

	stopServer(t, cmd)
}

func get(t *testing.T, client *http.Client, url string) (int, string) {
	t.Helper()

	resp, err := client.Get(url)
	require.NoError(t, err, "GET %s", url)
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

// startSQLite runs the sqlite3 CLI in a container to produce a seeded database on the host.
func startSQLite(t *testing.T) string {
	t.Helper()

	hostDir := t.TempDir()
	dbPath := filepath.Join(hostDir, "hawaii.sqlite")

	ctx := context.Background()

	req := tc.ContainerRequest{
		Image:      "nouchka/sqlite3:latest",
		WorkingDir: "/data",
		Entrypoint: []string{"sh", "-c"},
		Cmd: []string{
			"sqlite3 /data/hawaii.sqlite \"" + seedSQL + "\" && " +
				"chmod 0644 /data/hawaii.sqlite && " +
				"echo 'sqlite ready' && " +
				"tail -f /dev/null",
		},

		HostConfigModifier: func(hc *container.HostConfig) {
			hc.Binds = append(hc.Binds, hostDir+":/data")
		},
		WaitingFor: wait.ForLog("sqlite ready").WithStartupTimeout(30 * time.Second),
	}

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "start sqlite container")

	t.Cleanup(func() {
		_ = c.Terminate(ctx)
	})

	_, err = os.Stat(dbPath)
	require.NoError(t, err, "sqlite db file not created")

	return dbPath
}

func repoRootPath(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)

	repo := filepath.Clean(filepath.Join(wd, repoRootRel))
	_, err = os.Stat(filepath.Join(repo, "go.mod"))
	require.NoError(t, err, "repo root %q does not contain go.mod", repo)

	return repo
}

func buildBinary(t *testing.T, repoRoot string) string {
	t.Helper()

	out := filepath.Join(t.TempDir(), "climate-api")

	build := exec.Command("go", "build", "-o", out, mainPkgRel)
	build.Dir = repoRoot
	build.Env = os.Environ()

	b, err := build.CombinedOutput()
	require.NoError(t, err, "go build failed:\n%s", string(b))

	return out
}

func pickFreeAddr(t *testing.T) (string, string) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	host, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	return host, port
}

func waitForOK(t *testing.T, client *http.Client, url string, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("server not healthy after %s: %s", timeout, url)
}

func stopServer(t *testing.T, cmd *exec.Cmd) {
	t.Helper()

	_ = cmd.Process.Signal(syscall.SIGTERM)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		t.Fatalf("server did not exit in time")
	case err := <-done:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			t.Fatalf("server exited non-zero: %v", err)
		}
		require.NoError(t, err, "server wait error")
	}
}
