package collector

import (
	"testing"
	"time"

	"github.com/dmagro/dms-agent/internal/messaging"
)

func TestCollectDeliversPointsInFIFOOrder(t *testing.T) {
	ch := NewChannel(10)
	c := ch.NewCollector(time.Now())

	c.Collect("a", "p", "c", messaging.Int(1))
	c.Collect("b", "p", "c", messaging.Int(2))
	c.Collect("c", "p", "c", messaging.Int(3))
	ch.Close()

	var got []string
	for p := range ch.Points() {
		got = append(got, p.Location)
	}
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestCollectBlocksWhenFull(t *testing.T) {
	ch := NewChannel(1)
	c := ch.NewCollector(time.Now())

	c.Collect("first", "p", "c", messaging.Int(1))

	done := make(chan struct{})
	go func() {
		c.Collect("second", "p", "c", messaging.Int(2))
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Collect should have blocked while the channel was full")
	case <-time.After(20 * time.Millisecond):
	}

	<-ch.Points()

	select {
	case <-done:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("Collect never unblocked after a slot freed up")
	}
}

func TestClosingChannelSealsStream(t *testing.T) {
	ch := NewChannel(10)
	ch.Close()
	ch.Close() // idempotent

	_, ok := <-ch.Points()
	if ok {
		t.Fatal("expected closed channel to yield zero value with ok=false")
	}
}

func TestAllPointsShareBatchTimestamp(t *testing.T) {
	ch := NewChannel(10)
	batchTime := time.Now()
	c := ch.NewCollector(batchTime)

	c.Collect("a", "p", "c", messaging.Int(1))
	c.Collect("b", "p", "c", messaging.Int(2))
	ch.Close()

	for p := range ch.Points() {
		if !p.Timestamp.Equal(batchTime) {
			t.Fatalf("expected timestamp %v, got %v", batchTime, p.Timestamp)
		}
	}
}
