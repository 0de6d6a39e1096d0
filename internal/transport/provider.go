// internal/transport/provider.go
package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// ProviderClient talks to the transactional-email provider's JSON batch API.
type ProviderClient struct {
	URL       string
	APIKey    string
	FromEmail string
	Client    *http.Client
}

// NewProviderFromEnv returns nil if the provider is not configured; the
// processor treats a nil sender as "transport unavailable" and makes no
// progress rather than failing recipients over a transient condition.
func NewProviderFromEnv() *ProviderClient {
	apiKey := os.Getenv("PROVIDER_API_KEY")
	url := os.Getenv("PROVIDER_URL")
	if apiKey == "" || url == "" {
		return nil
	}
	return &ProviderClient{
		URL:       url,
		APIKey:    apiKey,
		FromEmail: os.Getenv("FROM_EMAIL"),
		Client:    &http.Client{Timeout: 30 * time.Second},
	}
}

type batchRequest struct {
	From     string    `json:"from"`
	Messages []Message `json:"messages"`
}

type batchResponse struct {
	Results []Result `json:"results"`
}

func (p *ProviderClient) SendBatch(msgs []Message) ([]Result, error) {
	body, err := json.Marshal(batchRequest{From: p.FromEmail, Messages: msgs})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, p.URL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	var out batchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

var _ BatchSender = (*ProviderClient)(nil)
