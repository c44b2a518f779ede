package crawler

import (
	"fmt"
	"sync"
	"testing"
)

// TestFrontierAdmitDeduplicates tests that a URL is admitted at most once.
func TestFrontierAdmitDeduplicates(t *testing.T) {
	t.Parallel()

	f := NewFrontier(100)

	if !f.TryAdmit("https://example.com/a", 0) {
		t.Fatal("first admit should succeed")
	}
	if f.TryAdmit("https://example.com/a", 0) {
		t.Error("second admit of the same URL should fail")
	}
	if f.SeenCount() != 1 {
		t.Errorf("expected 1 seen URL, got %d", f.SeenCount())
	}
}

// TestFrontierConcurrentDedup tests the dedup invariant under many
// concurrent admitters pushing overlapping URL sets.
func TestFrontierConcurrentDedup(t *testing.T) {
	t.Parallel()

	const (
		goroutines = 16
		urls       = 200
	)

	f := NewFrontier(goroutines * urls)

	var admitted sync.Map
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < urls; i++ {
				u := fmt.Sprintf("https://example.com/page-%d", i)
				if f.TryAdmit(u, 0) {
					if _, dup := admitted.LoadOrStore(u, true); dup {
						t.Errorf("URL %s admitted twice", u)
					}
				}
			}
		}()
	}
	wg.Wait()

	if got := f.SeenCount(); got != urls {
		t.Errorf("expected %d distinct URLs, got %d", urls, got)
	}

	// Drain and verify no URL comes out twice.
	seen := make(map[string]bool)
	for {
		item, ok := f.Next()
		if !ok {
			break
		}
		if seen[item.URL] {
			t.Errorf("URL %s dequeued twice", item.URL)
		}
		seen[item.URL] = true
		f.Done()
	}

	if len(seen) != urls {
		t.Errorf("expected %d dequeued URLs, got %d", urls, len(seen))
	}
}

// TestFrontierCap tests that total dequeues never exceed the cap,
// regardless of worker count and timing.
func TestFrontierCap(t *testing.T) {
	t.Parallel()

	const (
		pageCap = 50
		workers = 8
	)

	f := NewFrontier(pageCap)
	for i := 0; i < pageCap*3; i++ {
		f.TryAdmit(fmt.Sprintf("https://example.com/%d", i), 0)
	}

	var mu sync.Mutex
	total := 0

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				_, ok := f.Next()
				if !ok {
					return
				}
				mu.Lock()
				total++
				mu.Unlock()
				f.Done()
			}
		}()
	}
	wg.Wait()

	if total > pageCap {
		t.Errorf("dequeued %d items, cap is %d", total, pageCap)
	}
	if total != pageCap {
		t.Errorf("expected exactly %d dequeues with a full queue, got %d", pageCap, total)
	}
	if f.Dequeued() != pageCap {
		t.Errorf("Dequeued() = %d, want %d", f.Dequeued(), pageCap)
	}
}

// TestFrontierRejectsAfterCap tests that admission fails once the cap
// has been reached.
func TestFrontierRejectsAfterCap(t *testing.T) {
	t.Parallel()

	f := NewFrontier(1)
	f.TryAdmit("https://example.com/a", 0)

	if _, ok := f.Next(); !ok {
		t.Fatal("expected one item")
	}

	if f.TryAdmit("https://example.com/b", 0) {
		t.Error("admit should fail once the cap is reached")
	}
	f.Done()
}

// TestFrontierTermination tests that workers observing an empty queue
// do not exit while another worker may still enqueue.
func TestFrontierTermination(t *testing.T) {
	t.Parallel()

	f := NewFrontier(100)
	f.TryAdmit("https://example.com/root", 0)

	// Worker A dequeues the only item, then admits children after a
	// delay while workers B and C are blocked in Next. B and C must
	// receive the children rather than terminating early.
	results := make(chan string, 10)
	var wg sync.WaitGroup

	for w := 0; w < 3; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				item, ok := f.Next()
				if !ok {
					return
				}
				if item.Depth == 0 {
					// Root: produce children.
					f.TryAdmit("https://example.com/child-1", 1)
					f.TryAdmit("https://example.com/child-2", 1)
				}
				results <- item.URL
				f.Done()
			}
		}()
	}
	wg.Wait()
	close(results)

	var urls []string
	for u := range results {
		urls = append(urls, u)
	}
	if len(urls) != 3 {
		t.Errorf("expected 3 processed URLs, got %d: %v", len(urls), urls)
	}
}

// TestFrontierZeroCap tests that a zero pageCap rejects the seed itself.
func TestFrontierZeroCap(t *testing.T) {
	t.Parallel()

	f := NewFrontier(0)
	if f.TryAdmit("https://example.com", 0) {
		t.Error("admit should fail with a zero pageCap")
	}
	if _, ok := f.Next(); ok {
		t.Error("Next should report termination immediately")
	}
}

// TestFrontierClose tests that Close wakes blocked workers.
func TestFrontierClose(t *testing.T) {
	t.Parallel()

	f := NewFrontier(10)
	f.TryAdmit("https://example.com/a", 0)

	item, ok := f.Next()
	if !ok {
		t.Fatal("expected an item")
	}

	// A second consumer blocks because the queue is empty but the
	// first item is still pending. Close must release it.
	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, ok := f.Next(); ok {
			t.Error("Next should report termination after Close")
		}
	}()

	f.Close()
	<-done

	_ = item
	f.Done()
}

// TestCanonicalURL tests URL canonicalization for deduplication.
func TestCanonicalURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"strips fragment", "https://example.com/a#frag", "https://example.com/a"},
		{"lowercases host", "https://EXAMPLE.com/A", "https://example.com/A"},
		{"lowercases scheme", "HTTPS://example.com/a", "https://example.com/a"},
		{"adds root path", "https://example.com", "https://example.com/"},
		{"keeps query", "https://example.com/a?b=c", "https://example.com/a?b=c"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := CanonicalURL(tt.in)
			if err != nil {
				t.Fatalf("CanonicalURL(%q) returned error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("CanonicalURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
