package router

import (
	"bytes"
	"testing"
	"time"

	"github.com/pkg/errors"
)

func TestRoute(t *testing.T) {
	route := newRouteWithCapacity("test", 2)

	for _, message := range [][]byte{{1}, {2}} {
		err := route.Enqueue(message)
		if err != nil {
			t.Fatalf("Enqueue: %+v", err)
		}
	}
	err := route.Enqueue([]byte{3})
	if !errors.Is(err, ErrRouteCapacityReached) {
		t.Fatalf("expected ErrRouteCapacityReached, got %v", err)
	}

	for _, expected := range [][]byte{{1}, {2}} {
		message, err := route.Dequeue()
		if err != nil {
			t.Fatalf("Dequeue: %+v", err)
		}
		if !bytes.Equal(message, expected) {
			t.Fatalf("messages were dequeued out of order: got %x, want %x", message, expected)
		}
	}

	_, err = route.DequeueWithTimeout(10 * time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}

	route.Close()
	route.Close()
	err = route.Enqueue([]byte{4})
	if !errors.Is(err, ErrRouteClosed) {
		t.Fatalf("expected ErrRouteClosed on Enqueue, got %v", err)
	}
	_, err = route.Dequeue()
	if !errors.Is(err, ErrRouteClosed) {
		t.Fatalf("expected ErrRouteClosed on Dequeue, got %v", err)
	}
}

func TestRouterClose(t *testing.T) {
	router := NewRouter("test")
	router.Close()

	if err := router.IncomingRoute().Enqueue([]byte{1}); !errors.Is(err, ErrRouteClosed) {
		t.Fatalf("incoming route was not closed: %v", err)
	}
	if err := router.OutgoingRoute().Enqueue([]byte{1}); !errors.Is(err, ErrRouteClosed) {
		t.Fatalf("outgoing route was not closed: %v", err)
	}
}
