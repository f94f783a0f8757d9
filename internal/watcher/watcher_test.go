package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventTypeString(t *testing.T) {
	testCases := []struct {
		eventType EventType
		expected  string
	}{
		{EventTypeCreated, "created"},
		{EventTypeModified, "modified"},
		{EventTypeDeleted, "deleted"},
		{EventTypeRenamed, "renamed"},
		{EventType(42), "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.eventType.String())
		})
	}
}

func TestEventTypeFromOp(t *testing.T) {
	assert.Equal(t, EventTypeCreated, eventType(fsnotify.Create))
	assert.Equal(t, EventTypeModified, eventType(fsnotify.Write))
	assert.Equal(t, EventTypeDeleted, eventType(fsnotify.Remove))
	assert.Equal(t, EventTypeRenamed, eventType(fsnotify.Rename))
	assert.Equal(t, EventTypeModified, eventType(fsnotify.Chmod))
	assert.Equal(t, EventTypeCreated, eventType(fsnotify.Create|fsnotify.Write))
}

func TestNewFileWatcher(t *testing.T) {
	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	assert.NotNil(t, watcher.watcher)
	assert.NotNil(t, watcher.debouncer)
	assert.Empty(t, watcher.filters)
	assert.Empty(t, watcher.handlers)
}

func TestDebouncerCoalescesByPath(t *testing.T) {
	d := newDebouncer(time.Hour)
	defer d.stop()

	d.addEvent(ChangeEvent{Type: EventTypeCreated, Path: "/p/b.typ"})
	d.addEvent(ChangeEvent{Type: EventTypeModified, Path: "/p/a.typ"})
	d.addEvent(ChangeEvent{Type: EventTypeDeleted, Path: "/p/b.typ"})
	d.flush()

	select {
	case events := <-d.output:
		require.Len(t, events, 2)
		assert.Equal(t, "/p/a.typ", events[0].Path)
		assert.Equal(t, "/p/b.typ", events[1].Path)
		assert.Equal(t, EventTypeDeleted, events[1].Type, "latest event wins")
	default:
		t.Fatal("expected a batch")
	}

	d.flush()
	select {
	case <-d.output:
		t.Fatal("empty flush must not emit")
	default:
	}
}

func TestDebouncerWaitsForQuiet(t *testing.T) {
	d := newDebouncer(50 * time.Millisecond)
	defer d.stop()

	for i := 0; i < 5; i++ {
		d.addEvent(ChangeEvent{Type: EventTypeModified, Path: "/p/main.typ"})
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case events := <-d.output:
		assert.Len(t, events, 1)
	case <-time.After(2 * time.Second):
		t.Fatal("debouncer never flushed")
	}
}

func TestIgnoreFilter(t *testing.T) {
	root := filepath.FromSlash("/work/.projects/report")
	filter := IgnoreFilter(root, []string{".git", "node_modules", "*.pdf"})

	testCases := []struct {
		path     string
		expected bool
	}{
		{"/work/.projects/report/main.typ", true},
		{"/work/.projects/report/chapters/intro.typ", true},
		{"/work/.projects/report/.git/HEAD", false},
		{"/work/.projects/report/node_modules/x/index.js", false},
		{"/work/.projects/report/out.pdf", false},
		{"/work/.projects/report/figures/plot.png", true},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.expected, filter(filepath.FromSlash(tc.path)))
		})
	}
}

func TestNotPathFilter(t *testing.T) {
	dir := t.TempDir()
	filter := NotPathFilter(filepath.Join(dir, "out.pdf"))

	assert.False(t, filter(filepath.Join(dir, "out.pdf")))
	assert.False(t, filter(filepath.Join(dir, "sub", "..", "out.pdf")))
	assert.True(t, filter(filepath.Join(dir, "main.typ")))
}

func TestNoHiddenFilter(t *testing.T) {
	assert.True(t, NoHiddenFilter("/p/main.typ"))
	assert.False(t, NoHiddenFilter("/p/.main.typ.swx"))
	assert.False(t, NoHiddenFilter("/p/main.typ~"))
	assert.False(t, NoHiddenFilter("/p/main.typ.swp"))
}

func TestFileWatcherAddRecursiveSkipsIgnored(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "chapters", "part1"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git", "objects"), 0o755))

	watcher, err := NewFileWatcher(50*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	watcher.AddFilter(IgnoreFilter(root, []string{".git"}))
	require.NoError(t, watcher.AddRecursive(root))

	list := watcher.WatchList()
	assert.Contains(t, list, root)
	assert.Contains(t, list, filepath.Join(root, "chapters"))
	assert.Contains(t, list, filepath.Join(root, "chapters", "part1"))
	assert.NotContains(t, list, filepath.Join(root, ".git"))

	assert.Error(t, watcher.AddPath(filepath.Join(root, "absent")))
}

func TestFileWatcherDeliversBatches(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "main.pdf")

	watcher, err := NewFileWatcher(50*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	watcher.AddFilter(NotPathFilter(out))
	require.NoError(t, watcher.AddRecursive(root))

	var mu sync.Mutex
	seen := make(map[string]bool)
	watcher.AddHandler(func(events []ChangeEvent) error {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range events {
			seen[filepath.Base(e.Path)] = true
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, watcher.Start(ctx))

	require.NoError(t, os.WriteFile(out, []byte("%PDF"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.typ"), []byte("= Hi"), 0o644))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return seen["main.typ"]
	}, 2*time.Second, 20*time.Millisecond)

	mu.Lock()
	assert.False(t, seen["main.pdf"], "output file is filtered")
	mu.Unlock()
}
