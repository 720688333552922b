package persist

import (
	"fmt"
	"os"
	"path/filepath"
)

// Path returns the file a snapshot named basename is stored in.
func Path(dir, basename string, codec Codec) string {
	return filepath.Join(dir, basename+codec.Extension())
}

// SaveState writes state to dir. The file is replaced atomically, so a
// reader never sees a partial snapshot.
func SaveState(dir, basename string, codec Codec, state any) error {
	tmp, err := os.CreateTemp(dir, basename+".*.tmp")
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}

	defer os.Remove(tmp.Name())

	if err = codec.Encode(tmp, state); err != nil {
		tmp.Close()

		return fmt.Errorf("encode snapshot: %w", err)
	}

	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}

	if err = os.Rename(tmp.Name(), Path(dir, basename, codec)); err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}

	return nil
}

// LoadState decodes the snapshot in dir into state, which must be a pointer.
func LoadState(dir, basename string, codec Codec, state any) error {
	file, err := os.Open(Path(dir, basename, codec))
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer file.Close()

	if err = codec.Decode(file, state); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}

	return nil
}

// Persister binds a basename and codec to one snapshot type.
type Persister[T any] struct {
	basename string
	codec    Codec
}

// NewPersister returns a persister for snapshots of T.
func NewPersister[T any](basename string, codec Codec) *Persister[T] {
	return &Persister[T]{basename: basename, codec: codec}
}

// Save writes the value build returns.
func (p *Persister[T]) Save(dir string, build func() *T) error {
	return SaveState(dir, p.basename, p.codec, build())
}

// Load decodes a snapshot and hands it to restore.
func (p *Persister[T]) Load(dir string, restore func(*T) error) error {
	var state T

	if err := LoadState(dir, p.basename, p.codec, &state); err != nil {
		return err
	}

	return restore(&state)
}

// Exists reports whether a snapshot file is present in dir.
func (p *Persister[T]) Exists(dir string) bool {
	_, err := os.Stat(Path(dir, p.basename, p.codec))

	return err == nil
}
