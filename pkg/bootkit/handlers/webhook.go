package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	webhookLimit   = 1900
	webhookTimeout = 5 * time.Second
)

type webhookPayload struct {
	Content string `json:"content"`
}

// WebhookAlerter posts every alert to a chat webhook as {"content": "..."}.
// Alerts longer than the message limit are sent in several parts.
type WebhookAlerter struct {
	URL    string
	Client *http.Client
	// Logger receives delivery failures, they are dropped when nil.
	Logger Logger
	Limit  int
}

func (w *WebhookAlerter) Alert(message string) {
	limit := w.Limit
	if limit <= 0 {
		limit = webhookLimit
	}

	for i, chunk := range splitMessage(message, limit) {
		if err := w.send(chunk); err != nil {
			if w.Logger != nil {
				w.Logger.Error(fmt.Sprintf("could not deliver alert part %d: %v", i+1, err))
			}

			return
		}
	}
}

func (w *WebhookAlerter) send(content string) error {
	client := w.Client
	if client == nil {
		client = &http.Client{Timeout: webhookTimeout}
	}

	body, err := json.Marshal(webhookPayload{Content: content})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), webhookTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}

	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("webhook responded with status %d", resp.StatusCode)
	}

	return nil
}

// splitMessage cuts text into chunks of at most limit runes, on line breaks
// where possible.
func splitMessage(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var (
		chunks  []string
		current string
	)

	for _, line := range strings.Split(text, "\n") {
		currentLen, lineLen := utf8.RuneCountInString(current), utf8.RuneCountInString(line)

		switch {
		case current == "" && lineLen <= limit:
			current = line
		case current != "" && currentLen+1+lineLen <= limit:
			current += "\n" + line
		default:
			if current != "" {
				chunks = append(chunks, current)
				current = ""
			}

			runes := []rune(line)
			for len(runes) > limit {
				chunks = append(chunks, string(runes[:limit]))
				runes = runes[limit:]
			}

			current = string(runes)
		}
	}

	if current != "" {
		chunks = append(chunks, current)
	}

	return chunks
}
