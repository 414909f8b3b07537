package wqe

import "sync"

// itemPool recycles *Item values across submissions, the same
// sync.Pool-of-pointer discipline the daemon's ancestor used for I/O
// buffers: a hot path that allocates one object per request benefits from
// a pool even when the object itself is small, because it is submission
// rate, not size, that drives GC pressure here.
var itemPool = sync.Pool{
	New: func() any { return &Item{} },
}

// GetItem returns a recycled Item with Run and Done set, ready to submit.
// Callers that used GetItem should call PutItem from within done once it
// fires, to return the Item to the pool.
func GetItem(run func() error, done func(error)) *Item {
	item := itemPool.Get().(*Item)
	item.Run = run
	item.Done = done
	return item
}

// PutItem clears and returns item to the pool.
func PutItem(item *Item) {
	item.Run = nil
	item.Done = nil
	item.ID = ""
	itemPool.Put(item)
}
