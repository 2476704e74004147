package doc

import (
	"hash/fnv"
	"sort"
	"sync"
)

const defaultStripes = 64

// Locker serializes read-modify-write cycles on the same document within
// this process. Keys hash onto a fixed set of mutexes, so unrelated keys may
// occasionally share one.
type Locker struct {
	stripes []sync.Mutex
}

func NewLocker(stripes int) *Locker {
	if stripes <= 0 {
		stripes = defaultStripes
	}
	return &Locker{stripes: make([]sync.Mutex, stripes)}
}

func (l *Locker) stripe(key string) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(l.stripes)))
}

// Lock acquires every stripe covering keys and returns the matching unlock.
// Stripes are taken in ascending order so two callers locking overlapping
// sets cannot deadlock.
func (l *Locker) Lock(keys ...string) func() {
	seen := make(map[int]struct{}, len(keys))
	idx := make([]int, 0, len(keys))
	for _, k := range keys {
		i := l.stripe(k)
		if _, ok := seen[i]; ok {
			continue
		}
		seen[i] = struct{}{}
		idx = append(idx, i)
	}
	sort.Ints(idx)
	for _, i := range idx {
		l.stripes[i].Lock()
	}
	return func() {
		for j := len(idx) - 1; j >= 0; j-- {
			l.stripes[idx[j]].Unlock()
		}
	}
}
