package locator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// backendDocument is the static configuration document; the field name is the one deployed documents use.
type backendDocument struct {
	BackendAddress string `json:"backend_adress"`
}

type DocumentResolver struct {
	URL    string
	Client *http.Client
}

func NewDocumentResolver(url string, client *http.Client) *DocumentResolver {
	if client == nil {
		client = http.DefaultClient
	}
	return &DocumentResolver{URL: url, Client: client}
}

func (r *DocumentResolver) Resolve(ctx context.Context) (Location, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL, nil)
	if err != nil {
		return Location{}, fmt.Errorf("failed to build config request: %w", err)
	}

	res, err := r.Client.Do(req)
	if err != nil {
		return Location{}, fmt.Errorf("failed to load config: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return Location{}, fmt.Errorf("failed to load config: status %d", res.StatusCode)
	}

	var doc backendDocument
	if err := json.NewDecoder(res.Body).Decode(&doc); err != nil {
		return Location{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if doc.BackendAddress == "" {
		return Location{}, fmt.Errorf("config document has no backend_adress")
	}

	return Location{Host: doc.BackendAddress}, nil
}
