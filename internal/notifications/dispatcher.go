package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Dispatcher posts notifications to a fixed list of webhooks.
type Dispatcher struct {
	webhooks []string
	client   *http.Client
	now      func() time.Time
	wg       sync.WaitGroup
}

// NewDispatcher creates a Dispatcher for the given webhook URLs.
func NewDispatcher(webhooks []string) *Dispatcher {
	return &Dispatcher{
		webhooks: webhooks,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		now: time.Now,
	}
}

// Notify sends n in the background. Delivery errors are logged.
func (d *Dispatcher) Notify(ctx context.Context, n Notification) {
	if len(d.webhooks) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.Dispatch(ctx, n); err != nil {
			log.WithError(err).WithField("type", n.Type).Warn("notifications: delivery failed")
		}
	}()
}

// Wait blocks until background deliveries are done.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Dispatch sends n to every webhook and returns the joined delivery errors.
func (d *Dispatcher) Dispatch(ctx context.Context, n Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = d.now().UTC()
	}
	if n.Text == "" {
		n.Text = n.Title
		if n.Message != "" {
			n.Text += " : " + n.Message
		}
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshalling notification: %w", err)
	}

	var errs []error
	for _, url := range d.webhooks {
		if err := d.SendWebhook(ctx, url, payload); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", url, err))
		}
	}
	return errors.Join(errs...)
}

// SendWebhook POSTs payload to the given URL.
func (d *Dispatcher) SendWebhook(ctx context.Context, url string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
