package clients

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"sync-backend/internal/config"
	"sync-backend/internal/metrics"

	"github.com/nats-io/nats.go"
)

// TransferNotification message published for each party of a transfer
type TransferNotification struct {
	NotificationID string    `json:"notification_id"`
	AccountID      uint      `json:"account_id"`
	Contact        string    `json:"contact"`
	TemplateKind   string    `json:"template_kind"`
	TxHash         string    `json:"tx_hash"`
	NetworkID      uint32    `json:"network_id"`
	NetworkName    string    `json:"network_name"`
	TokenSymbol    string    `json:"token_symbol"`
	Amount         string    `json:"amount"`
	CounterpartID  uint      `json:"counterpart_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// NATSClient NATS client with JetStream publishing
type NATSClient struct {
	conn       *nats.Conn
	js         nats.JetStreamContext
	streamName string
}

// NewNATSClient creates a NATS client and ensures the transfer stream exists
func NewNATSClient(url, streamName string) (*NATSClient, error) {
	connectTimeout := 10 * time.Second
	reconnectWait := 5 * time.Second
	maxReconnects := -1
	if config.AppConfig != nil {
		if config.AppConfig.NATS.Timeout > 0 {
			connectTimeout = time.Duration(config.AppConfig.NATS.Timeout) * time.Second
		}
		if config.AppConfig.NATS.ReconnectWait > 0 {
			reconnectWait = time.Duration(config.AppConfig.NATS.ReconnectWait) * time.Second
		}
		if config.AppConfig.NATS.MaxReconnects != 0 {
			maxReconnects = config.AppConfig.NATS.MaxReconnects
		}
	}

	conn, err := nats.Connect(url,
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Printf("⚠️ NATS disconnected: %v", err)
			metrics.NATSConnectionStatus.Set(0)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("✅ NATS reconnected to %s", nc.ConnectedUrl())
			metrics.NATSConnectionStatus.Set(1)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	client := &NATSClient{
		conn:       conn,
		js:         js,
		streamName: streamName,
	}

	if err := client.ensureStream(); err != nil {
		conn.Close()
		return nil, err
	}

	metrics.NATSConnectionStatus.Set(1)
	log.Printf("✅ NATS connected, stream %s ready", streamName)
	return client, nil
}

// ensureStream creates the transfer stream if it does not exist
func (c *NATSClient) ensureStream() error {
	_, err := c.js.StreamInfo(c.streamName)
	if err == nil {
		return nil
	}

	_, err = c.js.AddStream(&nats.StreamConfig{
		Name:      c.streamName,
		Subjects:  []string{"transfers.>"},
		Retention: nats.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
		Storage:   nats.FileStorage,
	})
	if err != nil {
		return fmt.Errorf("failed to create stream %s: %w", c.streamName, err)
	}
	return nil
}

// PublishTransferNotification publishes one party notification
func (c *NATSClient) PublishTransferNotification(notification *TransferNotification) error {
	data, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	subject := fmt.Sprintf("transfers.notify.%d", notification.AccountID)
	if _, err := c.js.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}

// IsConnected reports whether the underlying connection is up
func (c *NATSClient) IsConnected() bool {
	return c.conn != nil && c.conn.IsConnected()
}

// Close drains and closes the connection
func (c *NATSClient) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}
