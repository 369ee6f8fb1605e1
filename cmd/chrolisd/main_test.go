package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/chrolisd/internal/config"
)

// syncBuffer guards a buffer shared with the logger.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestFlagSetCoversConfigKeys(t *testing.T) {
	fs := newFlagSet()
	for flag := range config.FlagKeys {
		assert.NotNil(t, fs.Lookup(flag), "flag %s is bound to config but not defined", flag)
	}
	assert.NotNil(t, fs.Lookup("config"))
}

func TestRunVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"--version"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "chrolisd dev")
}

func TestRunBadFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Error(t, run(context.Background(), []string{"--nope"}, &stdout, &stderr))
}

func TestRunUnknownDriver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chrolisd.yaml")
	var stdout bytes.Buffer
	var stderr syncBuffer
	err := run(context.Background(), []string{"--config", path, "--driver", "usb"}, &stdout, &stderr)
	assert.ErrorContains(t, err, "usb")
}

func TestRunUntilCancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chrolisd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: info\n"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	var stdout bytes.Buffer
	var stderr syncBuffer
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, []string{"--config", path, "--listen", "127.0.0.1:0", "--poll-interval", "1000"}, &stdout, &stderr)
	}()

	require.Eventually(t, func() bool {
		return bytes.Contains([]byte(stderr.String()), []byte("Starting HTTP API server"))
	}, 5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("run did not return after cancel")
	}
	assert.Contains(t, stderr.String(), "chrolisd server shut down gracefully")
}
