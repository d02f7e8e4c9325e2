package content

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPProvider pulls riddles from an external JSON API. The endpoint is
// expected to return {"question": "...", "answer": "..."} per request.
type HTTPProvider struct {
	url    string
	client *http.Client
}

func NewHTTPProvider(url string, timeout time.Duration) *HTTPProvider {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPProvider{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (p *HTTPProvider) Riddle(ctx context.Context) (Riddle, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return Riddle{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return Riddle{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Riddle{}, fmt.Errorf("riddle api returned status %d", resp.StatusCode)
	}

	var riddle Riddle
	if err := json.NewDecoder(resp.Body).Decode(&riddle); err != nil {
		return Riddle{}, fmt.Errorf("decode riddle response: %w", err)
	}
	if riddle.Question == "" || riddle.Answer == "" {
		return Riddle{}, fmt.Errorf("riddle api returned an empty riddle")
	}
	riddle.Answer = Normalize(riddle.Answer)
	return riddle, nil
}
