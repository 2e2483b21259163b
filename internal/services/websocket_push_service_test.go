package services

import (
	"testing"
	"time"

	"sync-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerConn(t *testing.T, s *WebSocketPushService, conn *Connection) {
	t.Helper()
	select {
	case s.register <- conn:
	case <-time.After(time.Second):
		t.Fatal("hub did not accept registration")
	}
}

func TestPushTransferDeliversToSubscriber(t *testing.T) {
	s := NewWebSocketPushService()
	s.Start()
	defer s.Stop()

	conn := &Connection{AccountID: 1, Send: make(chan []byte, 4)}
	registerConn(t, s, conn)

	s.PushTransfer([]uint{1}, &models.Transfer{TxHash: "0xabc", NetworkID: 1})

	select {
	case data := <-conn.Send:
		assert.Contains(t, string(data), "0xabc")
		assert.Contains(t, string(data), `"type":"transfer"`)
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive the push")
	}
}

func TestPushTransferOnlyReachesInvolvedAccounts(t *testing.T) {
	s := NewWebSocketPushService()
	s.Start()
	defer s.Stop()

	involved := &Connection{AccountID: 1, Send: make(chan []byte, 4)}
	bystander := &Connection{AccountID: 9, Send: make(chan []byte, 4)}
	registerConn(t, s, involved)
	registerConn(t, s, bystander)

	s.PushTransfer([]uint{1}, &models.Transfer{TxHash: "0xdef", NetworkID: 1})

	select {
	case <-involved.Send:
	case <-time.After(time.Second):
		t.Fatal("involved account did not receive the push")
	}
	assert.Empty(t, bystander.Send)
}

func TestSlowClientDoesNotStallHub(t *testing.T) {
	s := NewWebSocketPushService()
	s.Start()
	defer s.Stop()

	// A subscriber that never reads and has no buffer
	slow := &Connection{AccountID: 7, Send: make(chan []byte)}
	registerConn(t, s, slow)

	s.PushTransfer([]uint{7}, &models.Transfer{TxHash: "0x111", NetworkID: 1})

	// The hub must keep serving registrations after dropping for the slow
	// client; a fresh subscriber still gets later pushes
	fresh := &Connection{AccountID: 7, Send: make(chan []byte, 4)}
	registerConn(t, s, fresh)

	s.PushTransfer([]uint{7}, &models.Transfer{TxHash: "0x222", NetworkID: 1})

	select {
	case data := <-fresh.Send:
		assert.Contains(t, string(data), "0x222")
	case <-time.After(time.Second):
		t.Fatal("hub stalled after a slow-client broadcast")
	}

	require.Empty(t, slow.Send)
}
