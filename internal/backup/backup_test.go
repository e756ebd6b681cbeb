package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shubhamrasal/jsmcp/internal/models"
	natsclient "github.com/shubhamrasal/jsmcp/internal/nats"
)

type fakeAdmin struct {
	streams   map[string]*models.Stream
	consumers map[string][]*models.Consumer

	upsertedStreams   []models.StreamConfig
	upsertedConsumers []models.ConsumerConfig
}

func newFakeAdmin() *fakeAdmin {
	return &fakeAdmin{
		streams:   make(map[string]*models.Stream),
		consumers: make(map[string][]*models.Consumer),
	}
}

func (a *fakeAdmin) GetStreamInfo(_ context.Context, name string) (*models.Stream, error) {
	s, ok := a.streams[name]
	if !ok {
		return nil, fmt.Errorf("stream '%s' not found", name)
	}
	return s, nil
}

func (a *fakeAdmin) ListConsumers(_ context.Context, streamName string) ([]*models.Consumer, error) {
	return a.consumers[streamName], nil
}

func (a *fakeAdmin) UpsertStream(_ context.Context, cfg models.StreamConfig) (*models.Stream, error) {
	a.upsertedStreams = append(a.upsertedStreams, cfg)
	return &models.Stream{Name: cfg.Name, Config: cfg}, nil
}

func (a *fakeAdmin) UpsertConsumer(_ context.Context, streamName string, cfg models.ConsumerConfig) (*models.Consumer, error) {
	a.upsertedConsumers = append(a.upsertedConsumers, cfg)
	return &models.Consumer{Name: cfg.Name, Stream: streamName, Config: cfg}, nil
}

type fakeStore struct {
	blobs map[string][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{blobs: make(map[string][]byte)}
}

func (s *fakeStore) Configured() bool { return true }

func (s *fakeStore) Put(_ context.Context, name string, data []byte) error {
	s.blobs[name] = data
	return nil
}

func (s *fakeStore) Get(_ context.Context, name string) ([]byte, error) {
	data, ok := s.blobs[name]
	if !ok {
		return nil, fmt.Errorf("blob '%s' not found", name)
	}
	return data, nil
}

func (s *fakeStore) List(_ context.Context) ([]natsclient.BlobInfo, error) {
	var infos []natsclient.BlobInfo
	for name, data := range s.blobs {
		infos = append(infos, natsclient.BlobInfo{Name: name, Size: uint64(len(data))})
	}
	return infos, nil
}

func TestBackupWritesVersionedBlob(t *testing.T) {
	admin := newFakeAdmin()
	admin.streams["orders"] = &models.Stream{
		Name: "orders",
		Config: models.StreamConfig{
			Name:     "orders",
			Subjects: []string{"orders.>"},
			Storage:  "file",
		},
		State: models.StreamState{Messages: 42, Bytes: 1000, FirstSeq: 1, LastSeq: 42},
	}
	admin.consumers["orders"] = []*models.Consumer{
		{
			Name:   "fulfillment",
			Stream: "orders",
			Config: models.ConsumerConfig{Durable: "fulfillment", AckPolicy: "explicit"},
			Delivered: models.ConsumerSeqInfo{
				Stream:   40,
				Consumer: 40,
			},
			NumPending: 2,
		},
	}

	store := newFakeStore()
	m := NewManager(admin, store, nil)
	m.now = func() time.Time { return time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC) }

	name, err := m.Backup(context.Background(), "orders")
	if err != nil {
		t.Fatalf("Backup: %v", err)
	}
	if want := "orders-2026-08-31T10-00-00Z.json"; name != want {
		t.Fatalf("blob name = %q, want %q", name, want)
	}

	var b models.Backup
	if err := json.Unmarshal(store.blobs[name], &b); err != nil {
		t.Fatalf("blob did not parse: %v", err)
	}
	if b.Version != models.BackupVersion {
		t.Fatalf("version = %q, want %q", b.Version, models.BackupVersion)
	}
	if b.Stream.Config.Name != "orders" || b.Stream.State.Messages != 42 {
		t.Fatalf("unexpected stream snapshot: %+v", b.Stream)
	}
	if len(b.Consumers) != 1 || b.Consumers[0].Name != "fulfillment" {
		t.Fatalf("unexpected consumer snapshot: %+v", b.Consumers)
	}
	if b.Consumers[0].State.Delivered.Stream != 40 || b.Consumers[0].State.NumPending != 2 {
		t.Fatalf("consumer state not captured: %+v", b.Consumers[0].State)
	}
	if b.Timestamp != "2026-08-31T10:00:00Z" {
		t.Fatalf("timestamp = %q", b.Timestamp)
	}
}

func TestRestoreUpsertsStreamAndConsumers(t *testing.T) {
	blob := models.Backup{
		Stream: models.BackupStream{
			Config: models.StreamConfig{Name: "orders", Subjects: []string{"orders.>"}},
		},
		Consumers: []models.BackupConsumer{
			{Name: "a", Config: models.ConsumerConfig{Durable: "a"}},
			{Name: "b", Config: models.ConsumerConfig{Durable: "b"}},
		},
		Timestamp: "2026-08-31T10:00:00Z",
		Version:   models.BackupVersion,
	}
	data, err := json.Marshal(blob)
	if err != nil {
		t.Fatal(err)
	}

	store := newFakeStore()
	store.blobs["orders-2026-08-31T10-00-00Z.json"] = data
	admin := newFakeAdmin()
	m := NewManager(admin, store, nil)

	restored, err := m.Restore(context.Background(), "orders-2026-08-31T10-00-00Z.json")
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if restored.Stream.Config.Name != "orders" {
		t.Fatalf("restored stream = %q", restored.Stream.Config.Name)
	}
	if len(admin.upsertedStreams) != 1 || admin.upsertedStreams[0].Name != "orders" {
		t.Fatalf("stream upserts = %+v", admin.upsertedStreams)
	}
	if len(admin.upsertedConsumers) != 2 {
		t.Fatalf("consumer upserts = %d, want 2", len(admin.upsertedConsumers))
	}
}

func TestRestoreRejectsUnknownVersionBeforeMutating(t *testing.T) {
	blob := models.Backup{
		Stream:  models.BackupStream{Config: models.StreamConfig{Name: "orders"}},
		Version: "2.0",
	}
	data, err := json.Marshal(blob)
	if err != nil {
		t.Fatal(err)
	}

	store := newFakeStore()
	store.blobs["orders-2026-08-31T10-00-00Z.json"] = data
	admin := newFakeAdmin()
	m := NewManager(admin, store, nil)

	_, err = m.Restore(context.Background(), "orders-2026-08-31T10-00-00Z.json")
	if err == nil {
		t.Fatal("expected version error")
	}
	if !strings.Contains(err.Error(), "unsupported version") {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(admin.upsertedStreams) != 0 || len(admin.upsertedConsumers) != 0 {
		t.Fatal("broker was mutated despite version mismatch")
	}
}

func TestListFiltersAndSortsDescending(t *testing.T) {
	store := newFakeStore()
	for _, name := range []string{
		"orders-2026-08-29T10-00-00Z.json",
		"orders-2026-08-31T10-00-00Z.json",
		"orders-2026-08-30T10-00-00Z.json",
		"billing-2026-08-31T10-00-00Z.json",
		"not-a-backup.txt",
	} {
		store.blobs[name] = []byte("{}")
	}

	m := NewManager(newFakeAdmin(), store, nil)
	entries, err := m.List(context.Background(), "orders")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Timestamp.After(entries[i-1].Timestamp) {
			t.Fatalf("entries not sorted most recent first: %v before %v",
				entries[i-1].Timestamp, entries[i].Timestamp)
		}
	}
	if entries[0].Name != "orders-2026-08-31T10-00-00Z.json" {
		t.Fatalf("first entry = %q", entries[0].Name)
	}
	for _, e := range entries {
		if e.Stream != "orders" {
			t.Fatalf("entry for wrong stream: %+v", e)
		}
	}
}

func TestClosest(t *testing.T) {
	mk := func(ts time.Time) models.BackupEntry {
		return models.BackupEntry{Name: EncodeName("orders", ts), Timestamp: ts}
	}
	t1 := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	t2 := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	t3 := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	entries := []models.BackupEntry{mk(t3), mk(t2), mk(t1)} // descending

	tests := []struct {
		name   string
		target time.Time
		want   time.Time
	}{
		{"exact match", t2, t2},
		{"before all", t1.Add(-48 * time.Hour), t1},
		{"after all", t3.Add(48 * time.Hour), t3},
		{"nearer older", t2.Add(2 * time.Hour), t2},
		{"equidistant picks more recent", t2.Add(12 * time.Hour), t3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Closest(entries, tt.target)
			if !ok {
				t.Fatal("Closest returned no entry")
			}
			if !got.Timestamp.Equal(tt.want) {
				t.Fatalf("Closest = %v, want %v", got.Timestamp, tt.want)
			}
		})
	}

	if _, ok := Closest(nil, t1); ok {
		t.Fatal("expected no entry for empty list")
	}
}

func TestBackupPropagatesStoreError(t *testing.T) {
	admin := newFakeAdmin()
	admin.streams["orders"] = &models.Stream{Name: "orders", Config: models.StreamConfig{Name: "orders"}}

	m := NewManager(admin, failingStore{}, nil)
	if _, err := m.Backup(context.Background(), "orders"); !errors.Is(err, errStoreDown) {
		t.Fatalf("err = %v, want %v", err, errStoreDown)
	}
}

var errStoreDown = errors.New("store unavailable")

type failingStore struct{}

func (failingStore) Configured() bool                           { return true }
func (failingStore) Put(context.Context, string, []byte) error  { return errStoreDown }
func (failingStore) Get(context.Context, string) ([]byte, error) {
	return nil, errStoreDown
}
func (failingStore) List(context.Context) ([]natsclient.BlobInfo, error) {
	return nil, errStoreDown
}
