package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Feed bodies shared by the command tests. The EG dedicated feed repeats
// the Egyptian victim so the merge has something to drop.
const (
	recentVictimsBody = `[
		{"victim":"Nile Shipping","group":"lockbit3","attackdate":"2024-05-01","country":"EG","website":"nileshipping.com.eg"},
		{"victim":"Acme Corp","group":"akira","attackdate":"2024-05-02","country":"US"},
		null
	]`
	recentAttacksBody = `[{"victim":"Cairo Bank","group":"blackcat","attackdate":"2024-05-03","country":"Egypt"}]`
	egyptFeedBody     = `[{"victim":"Nile Shipping","group":"lockbit3","attackdate":"2024-05-01","country":"EG"}]`
	saudiFeedBody     = `[{"victim":"Riyadh Retail","group":"play","attackdate":"2024-05-04","country":"SA"}]`
)

// newFeedServer serves body per path; unknown paths return 404.
func newFeedServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[strings.TrimPrefix(r.URL.Path, "/")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// defaultRoutes returns a feed where only SA among the regions answers.
func defaultRoutes() map[string]string {
	return map[string]string{
		"recentvictims":      recentVictimsBody,
		"recentcyberattacks": recentAttacksBody,
		"countryvictims/EG":  egyptFeedBody,
		"countryvictims/SA":  saudiFeedBody,
	}
}

// emptyConfig writes an empty config file so tests never pick up a
// .ransomwatch from the developer's home directory.
func emptyConfig(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ransomwatch.yaml")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}
