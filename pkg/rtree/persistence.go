package rtree

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/kass/geo-bounds/pkg/models"
)

// IndexData is the serialized form of the index
type IndexData struct {
	Places []*models.Place `json:"places"`
	Count  int64           `json:"count"`
}

// SaveToFile writes the index to a gob file. Concurrent writers and readers
// of the same file are serialized through an advisory lock next to it.
func (g *GeoIndex) SaveToFile(filename string) error {
	lock := flock.New(filename + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock %s: %w", filename, err)
	}
	defer lock.Unlock()

	g.mu.RLock()
	data := IndexData{
		Places: g.all(),
		Count:  g.itemCount.Load(),
	}
	g.mu.RUnlock()

	// write beside the target and rename, so readers never see a partial file
	file, err := os.CreateTemp(filepath.Dir(filename), filepath.Base(filename)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	tmpName := file.Name()
	defer os.Remove(tmpName)

	if err := gob.NewEncoder(file).Encode(data); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode data: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("failed to sync file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(tmpName, filename); err != nil {
		return fmt.Errorf("failed to replace %s: %w", filename, err)
	}
	return nil
}

// LoadFromFile replaces the index contents with the places stored in filename
func (g *GeoIndex) LoadFromFile(filename string) error {
	lock := flock.New(filename + ".lock")
	if err := lock.RLock(); err != nil {
		return fmt.Errorf("failed to lock %s: %w", filename, err)
	}
	defer lock.Unlock()

	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var data IndexData
	if err := gob.NewDecoder(file).Decode(&data); err != nil {
		return fmt.Errorf("failed to decode data: %w", err)
	}

	// build aside and swap, so a failed load leaves the current contents
	fresh := NewGeoIndexWithPartitions(len(g.partitions))
	if err := fresh.IndexPlaces(data.Places); err != nil {
		return fmt.Errorf("failed to index places: %w", err)
	}
	if got := fresh.Count(); got != data.Count {
		return fmt.Errorf("index file %s is inconsistent: header says %d places, found %d", filename, data.Count, got)
	}

	g.mu.Lock()
	g.partitions = fresh.partitions
	g.partitionBounds = fresh.partitionBounds
	g.itemCount.Store(fresh.Count())
	g.mu.Unlock()

	return nil
}
