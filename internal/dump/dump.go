// Package dump implements the debug record dump spec.md §6 describes: a
// bbolt-backed store that, depending on the configured direction, either
// records every execution edge's fetched records under its QEdge id
// ("write") or replays previously dumped records instead of calling
// out to the edge manager's fetch handler ("read"). Grounded on the
// teacher's bbolt-backed identity resolver cache.
package dump

import (
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/biograph/trapi-engine/internal/execplan"
	"github.com/biograph/trapi-engine/internal/recordstore"
)

const bucketName = "edge_records"

// Direction selects which way a Dumper moves records relative to a live
// query: Write persists fetch results, Read replays previously dumped
// ones in place of a live fetch.
type Direction string

const (
	DirectionNone  Direction = ""
	DirectionRead  Direction = "read"
	DirectionWrite Direction = "write"
)

// Dumper stores and replays per-QEdge record sets in a bbolt database. A
// nil Dumper (or one with DirectionNone) makes Record and Replay no-ops,
// so callers don't need to special-case the disabled path.
type Dumper struct {
	db        *bolt.DB
	direction Direction
}

// Open creates or opens the bbolt database at path. An empty path or
// DirectionNone yields a disabled Dumper.
func Open(path string, direction Direction) (*Dumper, error) {
	if path == "" || direction == DirectionNone {
		return &Dumper{direction: DirectionNone}, nil
	}

	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open dump database: %w", err)
	}
	return &Dumper{db: db, direction: direction}, nil
}

// Close releases the underlying database handle, if any.
func (d *Dumper) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

// Enabled reports whether this Dumper will do anything for the given
// direction.
func (d *Dumper) Enabled(direction Direction) bool {
	return d != nil && d.db != nil && d.direction == direction
}

// Record persists edge's fetched records under its QEdge id, when this
// Dumper is configured for DirectionWrite. It is a no-op otherwise.
func (d *Dumper) Record(edge *execplan.XEdge, records []*recordstore.Record) error {
	if !d.Enabled(DirectionWrite) {
		return nil
	}

	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal dumped records: %w", err)
	}

	return d.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		if err != nil {
			return err
		}
		return bucket.Put([]byte(edge.QEdge.ID), data)
	})
}

// Replay returns the previously dumped records for edge's QEdge id, when
// this Dumper is configured for DirectionRead. The second return value
// reports whether a dump entry was found; callers fall back to a live
// fetch when it is false.
func (d *Dumper) Replay(edge *execplan.XEdge) ([]*recordstore.Record, bool, error) {
	if !d.Enabled(DirectionRead) {
		return nil, false, nil
	}

	var records []*recordstore.Record
	found := false
	err := d.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		if bucket == nil {
			return nil
		}
		data := bucket.Get([]byte(edge.QEdge.ID))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &records)
	})
	if err != nil {
		return nil, false, fmt.Errorf("replay dumped records: %w", err)
	}
	for _, r := range records {
		r.TrapiQEdgeID = edge.QEdge.ID
	}
	return records, found, nil
}
