package registry

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	logx "bdaybot/pkg/logx"
)

type memStore struct {
	ids     []int64
	saveErr error
	saves   int
}

func (m *memStore) Load(ctx context.Context) ([]int64, error) {
	return append([]int64(nil), m.ids...), nil
}

func (m *memStore) Save(ctx context.Context, ids []int64) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.ids = append([]int64(nil), ids...)
	m.saves++
	return nil
}

func (m *memStore) Close() error { return nil }

func TestAddRemoveContains(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := &memStore{}
	r, err := New(ctx, st, logx.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	added, err := r.Add(ctx, 42)
	if err != nil || !added {
		t.Fatalf("Add = (%v, %v), want (true, nil)", added, err)
	}
	if !r.Contains(42) {
		t.Fatal("Contains(42) = false after Add")
	}

	// repeated subscribe is informational, not a second insert
	added, err = r.Add(ctx, 42)
	if err != nil || added {
		t.Fatalf("second Add = (%v, %v), want (false, nil)", added, err)
	}
	if r.Len() != 1 {
		t.Fatalf("Len = %d, want 1", r.Len())
	}
	if st.saves != 1 {
		t.Fatalf("store saved %d times, want 1 (no-op Add must not persist)", st.saves)
	}

	removed, err := r.Remove(ctx, 42)
	if err != nil || !removed {
		t.Fatalf("Remove = (%v, %v), want (true, nil)", removed, err)
	}
	if r.Contains(42) {
		t.Fatal("Contains(42) = true after Remove")
	}
	removed, err = r.Remove(ctx, 42)
	if err != nil || removed {
		t.Fatalf("second Remove = (%v, %v), want (false, nil)", removed, err)
	}
}

func TestMutationsPersistSynchronously(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := &memStore{}
	r, err := New(ctx, st, logx.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, id := range []int64{3, 1, 2} {
		if _, err := r.Add(ctx, id); err != nil {
			t.Fatalf("Add(%d): %v", id, err)
		}
	}

	// a fresh registry over the same store sees the exact set
	r2, err := New(ctx, st, logx.Nop())
	if err != nil {
		t.Fatalf("New (reload): %v", err)
	}
	if got, want := r2.List(), []int64{1, 2, 3}; !reflect.DeepEqual(got, want) {
		t.Fatalf("List after reload = %v, want %v", got, want)
	}
}

func TestSaveFailureRollsBack(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := &memStore{}
	r, err := New(ctx, st, logx.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := r.Add(ctx, 7); err != nil {
		t.Fatalf("Add(7): %v", err)
	}

	st.saveErr = errors.New("disk full")
	if _, err := r.Add(ctx, 8); err == nil {
		t.Fatal("expected error from Add when Save fails")
	}
	if r.Contains(8) {
		t.Fatal("failed Add must not leave 8 in the set")
	}
	if _, err := r.Remove(ctx, 7); err == nil {
		t.Fatal("expected error from Remove when Save fails")
	}
	if !r.Contains(7) {
		t.Fatal("failed Remove must keep 7 in the set")
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "subscribers.json")

	st, err := openFile(Config{Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("openFile: %v", err)
	}

	// absent file is an empty set, not an error
	ids, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("Load (missing file): %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("Load (missing file) = %v, want empty", ids)
	}

	sets := [][]int64{
		{10, 20, 30},
		{},
		{-5},
	}
	for _, want := range sets {
		if err := st.Save(ctx, want); err != nil {
			t.Fatalf("Save(%v): %v", want, err)
		}
		got, err := st.Load(ctx)
		if err != nil {
			t.Fatalf("Load after Save(%v): %v", want, err)
		}
		if len(got) != len(want) {
			t.Fatalf("round-trip of %v = %v", want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("round-trip of %v = %v", want, got)
			}
		}
	}
}

func TestOpenStoreUnknownDriver(t *testing.T) {
	t.Parallel()
	if _, err := OpenStore(Config{Driver: "etcd"}, logx.Nop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
