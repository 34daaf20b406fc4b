package index

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
)

// On-disk layout: a binary vector blob plus a parallel JSON metadata
// list keyed by array position. Both files must agree on entry count or
// the load fails.
const (
	blobFile = "index.bin"
	metaFile = "index.meta.json"

	blobMagic   = uint32(0x54524958) // "TRIX"
	blobVersion = uint32(1)
)

// Save writes the index snapshot into dir. Both files are written to
// temp paths and renamed into place, so a crash mid-write never leaves
// a truncated blob behind. Save holds the read lock, so concurrent
// queries proceed while inserts wait.
func (x *FlatIndex) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	blobTmp := filepath.Join(dir, blobFile+".tmp")
	if err := writeBlob(blobTmp, x.dimension, x.vectors); err != nil {
		os.Remove(blobTmp)
		return err
	}

	meta, err := json.Marshal(x.metadata)
	if err != nil {
		os.Remove(blobTmp)
		return fmt.Errorf("marshal metadata: %w", err)
	}
	metaTmp := filepath.Join(dir, metaFile+".tmp")
	if err := os.WriteFile(metaTmp, meta, 0o644); err != nil {
		os.Remove(blobTmp)
		return fmt.Errorf("write metadata: %w", err)
	}

	if err := os.Rename(blobTmp, filepath.Join(dir, blobFile)); err != nil {
		os.Remove(blobTmp)
		os.Remove(metaTmp)
		return fmt.Errorf("commit index blob: %w", err)
	}
	if err := os.Rename(metaTmp, filepath.Join(dir, metaFile)); err != nil {
		os.Remove(metaTmp)
		return fmt.Errorf("commit metadata: %w", err)
	}
	return nil
}

func writeBlob(path string, dimension int, vectors [][]float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index blob: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	header := []uint32{blobMagic, blobVersion, uint32(dimension), uint32(len(vectors))}
	for _, v := range header {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("write blob header: %w", err)
		}
	}
	for _, vec := range vectors {
		for _, value := range vec {
			if err := binary.Write(w, binary.LittleEndian, math.Float64bits(value)); err != nil {
				return fmt.Errorf("write vector: %w", err)
			}
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush index blob: %w", err)
	}
	return f.Sync()
}

// Load restores an index previously written by Save. The blob dimension
// must match the configured dimension and the metadata list must be the
// same length as the vector list.
func Load(dir string, dimension int) (*FlatIndex, error) {
	f, err := os.Open(filepath.Join(dir, blobFile))
	if err != nil {
		return nil, fmt.Errorf("open index blob: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var magic, version, dim, count uint32
	for _, target := range []*uint32{&magic, &version, &dim, &count} {
		if err := binary.Read(r, binary.LittleEndian, target); err != nil {
			return nil, fmt.Errorf("read blob header: %w", err)
		}
	}
	if magic != blobMagic {
		return nil, fmt.Errorf("not an index blob: bad magic %#x", magic)
	}
	if version != blobVersion {
		return nil, fmt.Errorf("unsupported index blob version %d", version)
	}
	if int(dim) != dimension {
		return nil, fmt.Errorf("index blob dimension %d does not match configured %d", dim, dimension)
	}

	vectors := make([][]float64, 0, count)
	for i := uint32(0); i < count; i++ {
		vec := make([]float64, dim)
		for j := range vec {
			var bits uint64
			if err := binary.Read(r, binary.LittleEndian, &bits); err != nil {
				return nil, fmt.Errorf("read vector %d: %w", i, err)
			}
			vec[j] = math.Float64frombits(bits)
		}
		vectors = append(vectors, vec)
	}

	metaRaw, err := os.ReadFile(filepath.Join(dir, metaFile))
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	var metadata []entryMeta
	if err := json.Unmarshal(metaRaw, &metadata); err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}
	if len(metadata) != len(vectors) {
		return nil, fmt.Errorf("metadata length %d does not match vector count %d", len(metadata), len(vectors))
	}

	return &FlatIndex{dimension: dimension, vectors: vectors, metadata: metadata}, nil
}

// LoadOrNew restores an index from dir, falling back to an empty index
// when no snapshot exists yet.
func LoadOrNew(dir string, dimension int) (*FlatIndex, error) {
	idx, err := Load(dir, dimension)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewFlatIndex(dimension), nil
		}
		return nil, err
	}
	return idx, nil
}
