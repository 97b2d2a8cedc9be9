package session

import (
	"context"
	"testing"
	"time"

	"github.com/hirehub/interview-engine/internal/models"
)

func TestStartReturnsAfterShutdown(t *testing.T) {
	hub := NewHub()

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop after cancel")
	}

	// A connection finishing its upgrade after shutdown must not hang
	// on registration
	client := hub.NewClient(nil, "room-1", "user-1", models.RoleApplicant)
	returned := make(chan struct{})
	go func() {
		client.Start(nil)
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Start blocked on a stopped hub")
	}
}

func TestBroadcastNeverBlocks(t *testing.T) {
	hub := NewHub()

	// Nobody is draining the hub channel; overflow is dropped
	for i := 0; i < sendBuffer+10; i++ {
		hub.Broadcast(&models.SessionFrame{Type: models.FrameChat, RoomCode: "room-1"})
	}
}
