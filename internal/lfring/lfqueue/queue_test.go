package lfqueue

import (
	"sort"
	"sync"
	"testing"
)

func TestScenarioS1CapacityFourProduceConsume(t *testing.T) {
	q := New[int](4)
	for i := 1; i <= 4; i++ {
		if !q.Produce(i) {
			t.Fatalf("produce %d should succeed", i)
		}
	}
	if q.Produce(5) {
		t.Fatal("fifth produce into a full capacity-4 queue must fail")
	}

	var got []int
	for i := 0; i < 4; i++ {
		v, ok := q.Consume()
		if !ok {
			t.Fatalf("consume %d should succeed", i)
		}
		got = append(got, v)
	}
	sort.Ints(got)
	want := []int{1, 2, 3, 4}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want multiset %v", got, want)
		}
	}

	if _, ok := q.Consume(); ok {
		t.Fatal("queue should be empty after draining all 4 items")
	}
}

func TestBoundNeverExceedsCapacity(t *testing.T) {
	q := New[int](8)
	for i := 0; i < 100; i++ {
		q.Produce(i)
		if q.Len() > q.Cap() {
			t.Fatalf("queue length %d exceeded capacity %d", q.Len(), q.Cap())
		}
	}
}

func TestConcurrentProducersConsumersConserveMultiset(t *testing.T) {
	const n = 2000
	q := New[int](64)

	var wg sync.WaitGroup
	var produced, consumed sync.Map
	var producedCount, consumedCount int64 = 0, 0
	var mu sync.Mutex

	producers := 4
	perProducer := n / producers
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				v := base*perProducer + i
				for !q.Produce(v) {
					// spin until a slot frees up
				}
				produced.Store(v, true)
				mu.Lock()
				producedCount++
				mu.Unlock()
			}
		}(p)
	}

	done := make(chan struct{})
	consumers := 4
	var cwg sync.WaitGroup
	for c := 0; c < consumers; c++ {
		cwg.Add(1)
		go func() {
			defer cwg.Done()
			for {
				v, ok := q.Consume()
				if ok {
					consumed.Store(v, true)
					mu.Lock()
					consumedCount++
					mu.Unlock()
					continue
				}
				select {
				case <-done:
					return
				default:
				}
			}
		}()
	}

	wg.Wait()
	// Drain any remainder before signalling consumers to stop.
	for {
		v, ok := q.Consume()
		if !ok {
			break
		}
		consumed.Store(v, true)
	}
	close(done)
	cwg.Wait()

	mismatch := 0
	produced.Range(func(k, _ any) bool {
		if _, ok := consumed.Load(k); !ok {
			mismatch++
		}
		return true
	})
	if mismatch != 0 {
		t.Fatalf("%d produced values were never consumed", mismatch)
	}
}
