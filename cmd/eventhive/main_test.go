package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/ds124wfegd/eventhive/config"
	"github.com/ds124wfegd/eventhive/internal/appClient"
	"github.com/ds124wfegd/eventhive/internal/appServer"
	"github.com/ds124wfegd/eventhive/internal/database"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	t      *testing.T
	config string
	opts   []appClient.Option
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger, _ := test.NewNullLogger()

	handler, err := appServer.NewHandler(&config.Config{Server: config.ServerConfig{
		BasePath:      "/eventhive/api",
		Mode:          "release",
		PageSize:      5,
		JWTSecret:     "test-secret",
		TokenTTL:      time.Hour,
		AdminEmail:    "admin@example.com",
		AdminPassword: "password",
		SeedEvents:    true,
	}}, logger)
	require.NoError(t, err)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	path := filepath.Join(t.TempDir(), "client.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  base_url: \""+srv.URL+"/eventhive/api\"\n  retries: 0\n"), 0o600))

	// one store across invocations stands in for a persistent driver
	store := database.NewMemoryStore()
	return &harness{t: t, config: path, opts: []appClient.Option{appClient.WithStore(store), appClient.WithLogger(logger)}}
}

func (h *harness) run(args ...string) (int, string, string) {
	h.t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), append([]string{"-config", h.config}, args...), &stdout, &stderr, h.opts...)
	return code, stdout.String(), stderr.String()
}

var createdID = regexp.MustCompile(`Event created: (\S+)`)

func TestCLIFlow(t *testing.T) {
	h := newHarness(t)

	code, out, _ := h.run("login", "admin@example.com", "password")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Logged in as admin@example.com")

	code, out, _ = h.run("events")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Go Meetup")
	assert.Contains(t, out, "Page 1 of 2")

	code, out, stderr := h.run("create-event", "-title", "Launch", "-description", "Release party",
		"-location", "Roof", "-date", "2030-01-15", "-capacity", "5")
	require.Equal(t, 0, code, stderr)
	m := createdID.FindStringSubmatch(out)
	require.Len(t, m, 2)
	id := m[1]

	code, _, stderr = h.run("update-event", "-capacity", "6", id)
	require.Equal(t, 0, code, stderr)

	code, _, _ = h.run("logout")
	require.Equal(t, 0, code)

	code, out, _ = h.run("register", "Ann", "ann@example.com", "secret1")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Registered and logged in as ann@example.com")

	code, out, stderr = h.run("book", id, "2")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, out, "(2 seats), 4 seats left")

	code, _, stderr = h.run("book", id, "9")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "you cannot book more seats than available")

	code, out, _ = h.run("event", "-from", "bookings", id)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Seats left:  4")
	assert.Contains(t, out, "Your seats:  2")
	assert.Contains(t, out, "Back:        /bookings")

	code, out, _ = h.run("bookings")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Launch")
	assert.Contains(t, out, "confirmed")

	code, _, stderr = h.run("toggle", "whatever")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "forbidden")

	code, out, _ = h.run("whoami")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Ann <ann@example.com> (user)")
}

func TestCLILoggedOut(t *testing.T) {
	h := newHarness(t)

	code, _, stderr := h.run("bookings")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Please log in")

	code, out, _ := h.run("-as", "admin@example.com:password", "whoami")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "(admin)")
}

func TestCLIUsage(t *testing.T) {
	h := newHarness(t)

	code, _, stderr := h.run()
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "Commands:")

	code, _, stderr = h.run("dance")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, `unknown command "dance"`)

	code, _, stderr = h.run("login", "only-email")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "expected <email> <password>")
}
