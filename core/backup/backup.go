// Package backup exports and restores JSON snapshots of the record store.
package backup

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/ecolage/core"
)

const snapshotVersion = 1

var ErrUnsupportedVersion = errors.New("unsupported snapshot version")

// Snapshot is the content of every collection at a point in time.
type Snapshot struct {
	Version     int                      `json:"version"`
	CreatedAt   time.Time                `json:"created_at"` // UTC
	Collections map[string][]core.Record `json:"collections"`
}

// Count is the number of records of the snapshot.
func (s Snapshot) Count() int {
	var n int
	for _, recs := range s.Collections {
		n += len(recs)
	}
	return n
}

// Take reads every collection of store.
func Take(ctx context.Context, store core.Store) (Snapshot, error) {
	snap := Snapshot{
		Version:     snapshotVersion,
		CreatedAt:   time.Now().UTC(),
		Collections: make(map[string][]core.Record, len(core.AllCollections)),
	}
	for _, coll := range core.AllCollections {
		recs, err := store.GetAll(ctx, coll)
		if err != nil {
			return Snapshot{}, errors.Wrapf(err, "reading %s", coll)
		}
		snap.Collections[coll] = recs
	}
	return snap, nil
}

// Export writes a snapshot of store to w as indented JSON.
func Export(ctx context.Context, store core.Store, w io.Writer) (Snapshot, error) {
	snap, err := Take(ctx, store)
	if err != nil {
		return Snapshot{}, err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err = enc.Encode(snap); err != nil {
		return Snapshot{}, errors.Wrap(err, "writing snapshot")
	}
	return snap, nil
}

// Read decodes a snapshot written by Export.
func Read(r io.Reader) (Snapshot, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return Snapshot{}, errors.Wrap(err, "reading snapshot")
	}
	if snap.Version != snapshotVersion {
		return Snapshot{}, errors.Wrapf(ErrUnsupportedVersion, "version %d", snap.Version)
	}
	return snap, nil
}

// Restore replaces the content of the collections found in snap, keeping record IDs and timestamps.
// Collections absent from snap are left untouched. It runs in a single transaction when store supports it.
func Restore(ctx context.Context, store core.Restorer, snap Snapshot) error {
	return core.RunInTx(ctx, store, func(tx core.Store) error {
		rst, ok := tx.(core.Restorer)
		if !ok {
			rst = store
		}
		for _, coll := range core.AllCollections {
			recs, ok := snap.Collections[coll]
			if !ok {
				continue
			}
			if err := rst.Reset(ctx, coll); err != nil {
				return err
			}
			for _, rec := range recs {
				if err := rst.Put(ctx, coll, rec); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Import reads a snapshot from r and restores it.
func Import(ctx context.Context, store core.Restorer, r io.Reader) (Snapshot, error) {
	snap, err := Read(r)
	if err != nil {
		return Snapshot{}, err
	}
	if err = Restore(ctx, store, snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Reset removes every record of the given collections, or of all of them when none is given.
func Reset(ctx context.Context, store core.Restorer, collections ...string) error {
	if len(collections) == 0 {
		collections = core.AllCollections
	}
	return core.RunInTx(ctx, store, func(tx core.Store) error {
		rst, ok := tx.(core.Restorer)
		if !ok {
			rst = store
		}
		for _, coll := range collections {
			if err := rst.Reset(ctx, coll); err != nil {
				return err
			}
		}
		return nil
	})
}
