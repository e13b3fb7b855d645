package vecstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// badgerRecordPrefix namespaces record keys inside the database.
const badgerRecordPrefix = "rec/"

// storedRecord is the msgpack value stored under badgerRecordPrefix+ID.
type storedRecord struct {
	Vector   []float32      `msgpack:"v"`
	Metadata map[string]any `msgpack:"m,omitempty"`
}

// BadgerOptions configures a Badger index.
type BadgerOptions struct {
	// Dir is the directory for BadgerDB data files. Required unless
	// InMemory is set.
	Dir string

	// InMemory runs BadgerDB without disk persistence.
	InMemory bool

	// Logger receives badger's warnings and errors. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// Badger is a [Memory] index whose records are persisted in BadgerDB. All
// records are loaded into memory on open; writes go to disk first and then
// to memory.
type Badger struct {
	db  *badger.DB
	mem *Memory
}

var _ Index = (*Badger)(nil)

// NewBadger opens (or creates) a Badger index and loads its records.
func NewBadger(opts BadgerOptions) (*Badger, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("vecstore: BadgerOptions.Dir is required for on-disk mode")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	dbOpts := badger.DefaultOptions(opts.Dir).WithLogger(slogBadgerLogger{logger.With("component", "badger")})
	if opts.InMemory {
		dbOpts = dbOpts.WithDir("").WithValueDir("").WithInMemory(true)
	}
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, unavailable("badger", "open", err)
	}

	b := &Badger{db: db, mem: NewMemory()}
	if err := b.load(); err != nil {
		db.Close()
		return nil, err
	}
	return b, nil
}

func (b *Badger) load() error {
	prefix := []byte(badgerRecordPrefix)
	var records []Record
	err := b.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = prefix
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			id := strings.TrimPrefix(string(item.Key()), badgerRecordPrefix)
			err := item.Value(func(val []byte) error {
				var sr storedRecord
				if err := msgpack.Unmarshal(val, &sr); err != nil {
					return fmt.Errorf("decode record %q: %w", id, err)
				}
				records = append(records, Record{ID: id, Vector: sr.Vector, Metadata: sr.Metadata})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return unavailable("badger", "open", err)
	}

	b.mem.mu.Lock()
	b.mem.put(records)
	b.mem.mu.Unlock()
	return nil
}

// Upsert writes records to disk in one batch, then makes them searchable.
func (b *Badger) Upsert(ctx context.Context, records []Record) error {
	if err := ValidateRecords(records, 0); err != nil {
		return err
	}

	wb := b.db.NewWriteBatch()
	defer wb.Cancel()
	for _, r := range records {
		val, err := msgpack.Marshal(storedRecord{Vector: r.Vector, Metadata: r.Metadata})
		if err != nil {
			return fmt.Errorf("vecstore: encode record %q: %w", r.ID, err)
		}
		if err := wb.Set([]byte(badgerRecordPrefix+r.ID), val); err != nil {
			return unavailable("badger", "upsert", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return unavailable("badger", "upsert", err)
	}
	return b.mem.Upsert(ctx, records)
}

// Query searches the in-memory copy.
func (b *Badger) Query(ctx context.Context, q Query) ([]Match, error) {
	return b.mem.Query(ctx, q)
}

// Delete removes records from disk and memory.
func (b *Badger) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	wb := b.db.NewWriteBatch()
	defer wb.Cancel()
	for _, id := range ids {
		if err := wb.Delete([]byte(badgerRecordPrefix + id)); err != nil {
			return unavailable("badger", "delete", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return unavailable("badger", "delete", err)
	}
	return b.mem.Delete(ctx, ids...)
}

// Count returns the number of records.
func (b *Badger) Count(ctx context.Context) (int, error) {
	return b.mem.Count(ctx)
}

// Close closes the database.
func (b *Badger) Close() error {
	return b.db.Close()
}

// slogBadgerLogger forwards badger's log output to slog. Badger's info
// messages are logged at debug level.
type slogBadgerLogger struct {
	l *slog.Logger
}

func (s slogBadgerLogger) Errorf(f string, v ...any) {
	s.l.Error(strings.TrimSpace(fmt.Sprintf(f, v...)))
}

func (s slogBadgerLogger) Warningf(f string, v ...any) {
	s.l.Warn(strings.TrimSpace(fmt.Sprintf(f, v...)))
}

func (s slogBadgerLogger) Infof(f string, v ...any) {
	s.l.Debug(strings.TrimSpace(fmt.Sprintf(f, v...)))
}

func (s slogBadgerLogger) Debugf(f string, v ...any) {
	s.l.Debug(strings.TrimSpace(fmt.Sprintf(f, v...)))
}
