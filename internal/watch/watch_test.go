package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatcher_TriggersAfterWrite(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "pages", "home"), 0o755))

	changed := make(chan struct{}, 1)
	w, err := New(dir, 50*time.Millisecond, nil, func(context.Context) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher a moment to register the tree.
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(dir, "pages", "home", "1-intro.md")
	require.NoError(t, os.WriteFile(path, []byte("# Intro\n"), 0o644))

	select {
	case <-changed:
	case <-time.After(3 * time.Second):
		t.Fatal("expected a change trigger after writing a file")
	}

	cancel()
	require.NoError(t, <-done)
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()

	var calls int
	counted := make(chan struct{}, 8)
	w, err := New(dir, 150*time.Millisecond, nil, func(context.Context) {
		calls++
		counted <- struct{}{}
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)

	for i := 0; i < 5; i++ {
		name := filepath.Join(dir, "file"+string(rune('a'+i))+".md")
		require.NoError(t, os.WriteFile(name, []byte("x"), 0o644))
		time.Sleep(20 * time.Millisecond)
	}

	select {
	case <-counted:
	case <-time.After(3 * time.Second):
		t.Fatal("expected at least one trigger")
	}
	// The burst settles into one trigger; a second one would arrive within
	// the debounce window if coalescing were broken.
	select {
	case <-counted:
		t.Fatal("burst of writes produced more than one trigger")
	case <-time.After(400 * time.Millisecond):
	}

	cancel()
	require.NoError(t, <-done)
	require.Equal(t, 1, calls)
}
