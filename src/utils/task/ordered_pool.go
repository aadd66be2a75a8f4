package task

import (
	"hash/fnv"

	"github.com/gammazero/workerpool"
)

// OrderedPool runs functions submitted under the same key one after another,
// in submission order. Different keys may run in parallel.
type OrderedPool struct {
	shards []*workerpool.WorkerPool
}

func NewOrderedPool(numShards int) (self *OrderedPool) {
	if numShards < 1 {
		numShards = 1
	}

	self = new(OrderedPool)
	self.shards = make([]*workerpool.WorkerPool, numShards)
	for i := range self.shards {
		// Single worker keeps the FIFO order of the waiting queue
		self.shards[i] = workerpool.New(1)
	}
	return
}

func (self *OrderedPool) shard(key string) *workerpool.WorkerPool {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return self.shards[h.Sum32()%uint32(len(self.shards))]
}

func (self *OrderedPool) Submit(key string, f func()) {
	self.shard(key).Submit(f)
}

// Number of functions waiting in all shards
func (self *OrderedPool) WaitingQueueSize() (n int) {
	for _, s := range self.shards {
		n += s.WaitingQueueSize()
	}
	return
}

// Waits for all submitted functions to finish
func (self *OrderedPool) StopWait() {
	for _, s := range self.shards {
		s.StopWait()
	}
}
