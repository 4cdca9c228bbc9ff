package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/iulianpascalau/client-observability/services/engine/common"
	"github.com/sony/gobreaker"
)

const maxConsecutiveWebhookFailures = 5

// ArgsNotifier defines the notifier arguments
type ArgsNotifier struct {
	WebhookTimeout time.Duration
	// Async makes the webhook delivery happen on a separate go routine
	Async bool
}

// WebhookPayload is the JSON body posted to an alert webhook
type WebhookPayload struct {
	Text  string       `json:"text"`
	Alert common.Alert `json:"alert"`
}

// notifier dispatches alerts on the channels declared by the rule: a JSON webhook and email recipients.
// Email delivery is an external collaborator, the notifier only logs the dispatch.
type notifier struct {
	client  *http.Client
	timeout time.Duration
	async   bool
	breaker *gobreaker.CircuitBreaker
	wg      sync.WaitGroup
}

// NewNotifier creates a new alert notifier
func NewNotifier(args ArgsNotifier) (*notifier, error) {
	if args.WebhookTimeout <= 0 {
		return nil, fmt.Errorf("invalid webhook timeout: %v", args.WebhookTimeout)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "alert-webhook",
		Timeout: time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxConsecutiveWebhookFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("webhook circuit breaker changed state", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return &notifier{
		client: &http.Client{
			Timeout: args.WebhookTimeout,
		},
		timeout: args.WebhookTimeout,
		async:   args.Async,
		breaker: breaker,
	}, nil
}

// Notify dispatches the alert. In async mode webhook failures are only logged.
func (n *notifier) Notify(alert common.Alert, channels common.AlertChannels) error {
	if len(channels.Emails) > 0 {
		log.Info("email alert dispatch", "recipients", strings.Join(channels.Emails, ","),
			"rule", alert.RuleName, "message", alert.Message)
	}
	if len(channels.WebhookURL) == 0 {
		return nil
	}

	if !n.async {
		return n.sendWebhook(channels.WebhookURL, alert)
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		err := n.sendWebhook(channels.WebhookURL, alert)
		if err != nil {
			log.Warn("failed to deliver alert webhook", "url", channels.WebhookURL, "rule", alert.RuleName, "error", err)
		}
	}()

	return nil
}

func (n *notifier) sendWebhook(url string, alert common.Alert) error {
	_, err := n.breaker.Execute(func() (interface{}, error) {
		return nil, n.postWebhook(url, alert)
	})

	return err
}

func (n *notifier) postWebhook(url string, alert common.Alert) error {
	payload := WebhookPayload{
		Text:  fmt.Sprintf("[%s] %s: %s", strings.ToUpper(string(alert.Severity)), alert.RuleName, alert.Message),
		Alert: alert,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("network error sending webhook: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errStatusNotOK(resp.StatusCode)
	}

	log.Debug("alert webhook delivered", "url", url, "rule", alert.RuleName)

	return nil
}

// Close waits for the in-flight webhook deliveries
func (n *notifier) Close() error {
	n.wg.Wait()
	return nil
}

// IsInterfaceNil returns true if the value under the interface is nil
func (n *notifier) IsInterfaceNil() bool {
	return n == nil
}
