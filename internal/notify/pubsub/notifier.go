// Package pubsub implements a Google Cloud Pub/Sub run notifier.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"

	"github.com/redresslabs/redress/internal/rights"
)

// Notifier publishes run summaries to a Pub/Sub topic so downstream
// consumers (alerting, BI loads) learn about finished runs.
type Notifier struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

// Ensure Notifier implements rights.Notifier.
var _ rights.Notifier = (*Notifier)(nil)

// New wraps an existing client and topic handle. Callers own the client
// lifecycle unless they hand it over via Close.
func New(client *pubsub.Client, topic *pubsub.Topic) *Notifier {
	return &Notifier{client: client, topic: topic}
}

// Connect creates a client with Application Default Credentials and verifies
// the topic exists, so a misconfigured topic fails at startup rather than at
// the end of the first run.
func Connect(ctx context.Context, projectID, topicID string) (*Notifier, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	topic := client.Topic(topicID)
	ok, err := topic.Exists(ctx)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("check pubsub topic %q: %w", topicID, err)
	}
	if !ok {
		_ = client.Close()
		return nil, fmt.Errorf("pubsub topic %q does not exist in project %q", topicID, projectID)
	}
	return New(client, topic), nil
}

// Notify marshals the summary to JSON and publishes it, waiting for the
// server ack so failures surface in the run log. It returns the server
// message ID.
func (n *Notifier) Notify(ctx context.Context, summary rights.RunSummary) (string, error) {
	if n.topic == nil {
		return "", fmt.Errorf("pubsub topic is not configured")
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return "", fmt.Errorf("marshal run summary: %w", err)
	}
	msg := &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"run_id": summary.RunID,
			"status": string(summary.Status),
		},
	}
	result := n.topic.Publish(ctx, msg)
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish run summary: %w", err)
	}
	return id, nil
}

// Close stops the topic publisher and releases the client connection.
func (n *Notifier) Close() error {
	if n.topic != nil {
		n.topic.Stop()
	}
	if n.client == nil {
		return nil
	}
	if err := n.client.Close(); err != nil {
		return fmt.Errorf("close pubsub client: %w", err)
	}
	return nil
}
