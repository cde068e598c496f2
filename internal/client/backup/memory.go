package backup

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dmitrijs2005/threeline/internal/common"
)

type memObject struct {
	data []byte
	at   int64
}

// MemoryArchive keeps archives in process memory.
type MemoryArchive struct {
	mu    sync.RWMutex
	clock common.Clock
	items map[string]memObject
}

var _ Archive = (*MemoryArchive)(nil)

func NewMemoryArchive(clock common.Clock) *MemoryArchive {
	if clock == nil {
		clock = common.RealClock{}
	}
	return &MemoryArchive{clock: clock, items: map[string]memObject{}}
}

func (a *MemoryArchive) Put(ctx context.Context, key string, data []byte) error {
	if err := CheckName(key); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.items[key] = memObject{data: append([]byte(nil), data...), at: common.NowMillis(a.clock)}
	return nil
}

func (a *MemoryArchive) Get(ctx context.Context, key string) ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	obj, ok := a.items[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrArchiveNotFound, key)
	}
	return append([]byte(nil), obj.data...), nil
}

func (a *MemoryArchive) List(ctx context.Context) ([]ArchiveInfo, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := []ArchiveInfo{}
	for key, obj := range a.items {
		if info, ok := describe(key, int64(len(obj.data)), common.FromMillis(obj.at)); ok {
			out = append(out, info)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (a *MemoryArchive) Delete(ctx context.Context, key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.items[key]; !ok {
		return fmt.Errorf("%w: %s", ErrArchiveNotFound, key)
	}
	delete(a.items, key)
	return nil
}
