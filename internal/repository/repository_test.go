package repository

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"property-maintenance-backend/internal/db"
	"property-maintenance-backend/internal/notification"
	"property-maintenance-backend/internal/store"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	gormDB, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))
	t.Cleanup(func() { _ = db.Close(gormDB) })
	return store.NewGormStore(gormDB, nil)
}

// fakeBookings serves guest counts per booking-system property id.
type fakeBookings struct {
	mu     sync.Mutex
	guests map[int64]int
	errs   map[int64]error
	calls  []int64
}

func (f *fakeBookings) GuestsForProperty(_ context.Context, id int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, id)
	if err := f.errs[id]; err != nil {
		return 0, err
	}
	return f.guests[id], nil
}

// fakeObjects records uploads and deletes. Uploads fail when err is set, or
// once failAfter uploads have succeeded when failAfter is positive.
type fakeObjects struct {
	mu        sync.Mutex
	paths     []string
	deleted   []string
	content   map[string][]byte
	err       error
	failAfter int
}

func (f *fakeObjects) Upload(_ context.Context, objectPath, _ string, body io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.failAfter > 0 && len(f.paths) >= f.failAfter {
		return "", errUpstream
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.content == nil {
		f.content = map[string][]byte{}
	}
	f.paths = append(f.paths, objectPath)
	f.content[objectPath] = data
	return "https://cdn.test/" + objectPath, nil
}

func (f *fakeObjects) Delete(_ context.Context, objectPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, objectPath)
	delete(f.content, objectPath)
	return nil
}

// recordingNotifier keeps every dispatched event.
type recordingNotifier struct {
	mu     sync.Mutex
	events []notification.Event
}

func (n *recordingNotifier) Dispatch(ev notification.Event) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return true
}

func (n *recordingNotifier) kinds() []notification.EventKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notification.EventKind, 0, len(n.events))
	for _, ev := range n.events {
		out = append(out, ev.Kind)
	}
	return out
}

func attachment(name, content string) Attachment {
	return Attachment{
		Filename:    name,
		ContentType: "image/jpeg",
		Size:        int64(len(content)),
		Body:        bytes.NewBufferString(content),
	}
}

var errUpstream = errors.New("upstream unavailable")

func nopLogger() *zap.Logger { return zap.NewNop() }
