// Package gateway talks to the chat platform gateway: the process that
// owns the bot's platform connection. Direct messages and message
// existence probes go through its HTTP API.
package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ignmarket/listing-bot/internal/notify"
	"github.com/ignmarket/listing-bot/internal/shared/logger"
	"go.uber.org/zap"
)

// Client is an HTTP client for the gateway API.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// SendDirect delivers a notification as a platform DM.
func (c *Client) SendDirect(n notify.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	resp, err := c.http.Post(c.baseURL+"/api/direct-messages", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to reach gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("gateway rejected direct message: %s", resp.Status)
	}
	return nil
}

// MessageExists probes whether a posted message is still up.
func (c *Client) MessageExists(channelID, messageID string) (bool, error) {
	resp, err := c.http.Get(fmt.Sprintf("%s/api/channels/%s/messages/%s", c.baseURL, channelID, messageID))
	if err != nil {
		return false, fmt.Errorf("failed to reach gateway: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("unexpected gateway status: %s", resp.Status)
	}
}

// LogMessenger is the fallback when no gateway is configured: deliveries
// are logged instead of sent.
type LogMessenger struct{}

func (LogMessenger) SendDirect(n notify.Notification) error {
	logger.Info("Direct message (no gateway configured)",
		zap.String("recipient_id", n.RecipientID),
		zap.String("title", n.Title),
		zap.String("body", n.Body))
	return nil
}
