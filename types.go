package drivethru

import (
	"context"
	"fmt"
	"net/http"

	"drivethru/order"
	"drivethru/tools"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type SlackClient interface {
	PostMessage(ctx context.Context, channel string, message string) error
}

type ToolProvider interface {
	GetTools() []tools.Tool
	GetTool(name string) (tools.Tool, error)
}

// OrderNotifier is told about every order that completes.
type OrderNotifier interface {
	NotifyCompleted(ctx context.Context, snapshot order.Snapshot) error
}

// OrderState exposes the session's order to the coordinator without
// granting mutation rights.
type OrderState interface {
	Status() order.Status
	Snapshot() order.Snapshot
}

// SlackNotifier posts a one-line summary of each completed order.
type SlackNotifier struct {
	client  SlackClient
	channel string
}

func NewSlackNotifier(client SlackClient, channel string) *SlackNotifier {
	return &SlackNotifier{client: client, channel: channel}
}

func (n *SlackNotifier) NotifyCompleted(ctx context.Context, snapshot order.Snapshot) error {
	return n.client.PostMessage(ctx, n.channel, SlackMessage(snapshot))
}

// SlackMessage renders the kitchen notification for a completed order.
func SlackMessage(snapshot order.Snapshot) string {
	return fmt.Sprintf("Order %s completed: %s (%d items)", snapshot.SessionID, snapshot.Summary, snapshot.TotalQuantity)
}
