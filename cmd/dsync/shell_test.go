package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/chmdznr/oss-drive-to-blob-copier/internal/db"
	"github.com/chmdznr/oss-drive-to-blob-copier/internal/session"
	"github.com/chmdznr/oss-drive-to-blob-copier/internal/destination"
	"github.com/chmdznr/oss-drive-to-blob-copier/internal/source"
	engine "github.com/chmdznr/oss-drive-to-blob-copier/internal/sync"
	"github.com/chmdznr/oss-drive-to-blob-copier/pkg/models"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

func init() {
	color.NoColor = true
}

type memDestination struct {
	mu      sync.Mutex
	objects map[string][]byte
	reject  map[string]bool
}

func (m *memDestination) EnsureContainer(ctx context.Context) {}

func (m *memDestination) ListFiles(ctx context.Context) []models.RemoteFile {
	m.mu.Lock()
	defer m.mu.Unlock()
	files := make([]models.RemoteFile, 0, len(m.objects))
	for key, data := range m.objects {
		files = append(files, models.RemoteFile{ID: key, Name: key, Size: int64(len(data))})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files
}

func (m *memDestination) WriteFile(ctx context.Context, key string, data []byte) destination.WriteResult {
	if m.reject[key] {
		return destination.WriteResult{Key: key, Err: errors.New("access denied")}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return destination.WriteResult{Key: key, Success: true}
}

// hookedSource runs onFetch before every download
type hookedSource struct {
	source.Store
	onFetch func()
}

func (h *hookedSource) FetchContent(ctx context.Context, id string) ([]byte, error) {
	if h.onFetch != nil {
		h.onFetch()
	}
	return h.Store.FetchContent(ctx, id)
}

func newShellSession(t *testing.T, reject ...string) (*session.Session, *memDestination) {
	t.Helper()
	return newShellSessionWith(t, nil, reject...)
}

func newShellSessionWith(t *testing.T, wrap func(source.Store) source.Store, reject ...string) (*session.Session, *memDestination) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("alpha"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("bravo"), 0o644))

	local, err := source.NewLocal(dir)
	require.NoError(t, err)
	var src source.Store = local
	if wrap != nil {
		src = wrap(local)
	}
	dst := &memDestination{objects: map[string][]byte{}, reject: map[string]bool{}}
	for _, key := range reject {
		dst.reject[key] = true
	}

	catalog, err := db.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = catalog.Close() })

	ctx := context.Background()
	sess := session.New(ctx, src, dst, catalog)
	require.NoError(t, sess.Load(ctx))
	return sess, dst
}

func TestShellSelectAndSync(t *testing.T) {
	sess, dst := newShellSession(t)
	var out bytes.Buffer

	in := strings.NewReader("select 2\nfiles\nsync selected\nbucket\nquit\n")
	require.NoError(t, runShell(context.Background(), sess, in, &out))

	text := out.String()
	assert.Contains(t, text, "selected b.txt")
	assert.Contains(t, text, "[x] b.txt")
	assert.Contains(t, text, "Success: b.txt synced!")
	assert.Contains(t, text, "1 synced, 0 failed")
	assert.Contains(t, text, "Objects (destination) 1")
	assert.Equal(t, []byte("bravo"), dst.objects["b.txt"])
	assert.NotContains(t, dst.objects, "a.txt")

	selected, err := sess.SelectedFiles()
	require.NoError(t, err)
	assert.Empty(t, selected)
}

func TestShellSyncAllReportsFailures(t *testing.T) {
	sess, dst := newShellSession(t, "a.txt")
	var out bytes.Buffer

	require.NoError(t, runShell(context.Background(), sess, strings.NewReader("sync all\nstatus\n"), &out))

	text := out.String()
	assert.Contains(t, text, "Failed to upload a.txt: access denied")
	assert.Contains(t, text, "1 synced, 1 failed")
	assert.Contains(t, text, "2 files (10 B): 1 synced, 0 pending, 1 failed, 0 selected, sync idle")
	assert.Len(t, dst.objects, 1)
}

func TestShellStatusDuringSync(t *testing.T) {
	var during bytes.Buffer
	var sess *session.Session
	hook := &hookedSource{}
	hook.onFetch = func() {
		if during.Len() == 0 {
			require.NoError(t, execLine(context.Background(), sess, &during, "status"))
		}
	}

	sess, _ = newShellSessionWith(t, func(src source.Store) source.Store {
		hook.Store = src
		return hook
	})

	var out bytes.Buffer
	require.NoError(t, execLine(context.Background(), sess, &out, "sync all"))
	assert.Contains(t, during.String(), "sync running")

	out.Reset()
	require.NoError(t, execLine(context.Background(), sess, &out, "status"))
	assert.Contains(t, out.String(), "2 synced, 0 pending, 0 failed, 0 selected, sync idle")
}

func TestShellErrorsKeepRunning(t *testing.T) {
	sess, _ := newShellSession(t)
	var out bytes.Buffer

	in := strings.NewReader("bogus\nselect 9\nselect\nsync selected\nsync sideways\nlogs x\nlogs 1\n")
	require.NoError(t, runShell(context.Background(), sess, in, &out))

	text := out.String()
	assert.Contains(t, text, `error: unknown command "bogus"`)
	assert.Contains(t, text, "error: row 9 out of range 1-2")
	assert.Contains(t, text, "error: usage: select")
	assert.Contains(t, text, "error: "+session.ErrNothingToSync.Error())
	assert.Contains(t, text, `error: unknown sync mode "sideways"`)
	assert.Contains(t, text, `error: invalid log count "x"`)
	assert.Contains(t, text, "listing refreshed")
}

func TestResolveFile(t *testing.T) {
	files := []models.RemoteFile{{ID: "f1", Name: "one"}, {ID: "2", Name: "two"}}

	tests := []struct {
		name    string
		arg     string
		wantID  string
		wantErr bool
	}{
		{name: "by row", arg: "1", wantID: "f1"},
		{name: "id wins over row", arg: "2", wantID: "2"},
		{name: "by id", arg: "f1", wantID: "f1"},
		{name: "row out of range", arg: "3", wantErr: true},
		{name: "zero row", arg: "0", wantErr: true},
		{name: "unknown id", arg: "nope", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := resolveFile(files, tt.arg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, f.ID)
		})
	}
}

func TestBatchProgressIgnoresEmptyBatch(t *testing.T) {
	var out bytes.Buffer
	p := newBatchProgress(&out)

	p.EmitSyncEvent(engine.Event{Kind: engine.EventBatchStarted, Total: 0})
	p.EmitSyncEvent(engine.Event{Kind: engine.EventStatusChanged})
	p.EmitSyncEvent(engine.Event{Kind: engine.EventBatchComplete})
	assert.Nil(t, p.bar)
}

func TestBatchProgressCountsFiles(t *testing.T) {
	var out bytes.Buffer
	p := newBatchProgress(&out)

	p.EmitSyncEvent(engine.Event{Kind: engine.EventBatchStarted, Total: 2})
	require.NotNil(t, p.bar)
	bar := p.bar
	p.EmitSyncEvent(engine.Event{Kind: engine.EventDownloading, Name: "a.txt"})
	p.EmitSyncEvent(engine.Event{Kind: engine.EventStatusChanged})
	p.EmitSyncEvent(engine.Event{Kind: engine.EventStatusChanged})
	assert.EqualValues(t, 2, bar.Current())
	p.EmitSyncEvent(engine.Event{Kind: engine.EventBatchComplete})
	assert.Nil(t, p.bar)
}
