// Package client talks to the gallery admin endpoints of a running server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/floracafe/cafesite/api/models"
	"github.com/floracafe/cafesite/store"
)

type PhotoClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewPhotoClient returns a client authenticating with the session token.
func NewPhotoClient(baseURL string, token string) *PhotoClient {
	return &PhotoClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (pc *PhotoClient) do(ctx context.Context, method, path string, body any) (*http.Response, []byte, error) {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, pc.baseURL+path, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if pc.token != "" {
		req.Header.Set("Authorization", "Bearer "+pc.token)
	}

	resp, err := pc.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp, data, nil
}

func serverError(resp *http.Response, body []byte) error {
	var errResp models.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return fmt.Errorf("server error (%d): %s", resp.StatusCode, errResp.Error)
	}
	return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
}

// RegisterPhoto adds a photo to the gallery. Registering a url that is
// already present succeeds with Created set to false.
func (pc *PhotoClient) RegisterPhoto(ctx context.Context, reqBody models.RegisterPhotoRequest) (*models.RegisterPhotoResponse, error) {
	resp, body, err := pc.do(ctx, http.MethodPost, "/admin/gallery/register", reqBody)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, serverError(resp, body)
	}

	var registerResp models.RegisterPhotoResponse
	if err := json.Unmarshal(body, &registerResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if registerResp.Created {
		slog.Info("photo registered successfully", "url", reqBody.URL, "source", reqBody.Source, "order", registerResp.Photo.Order)
	} else {
		slog.Debug("photo already registered, skipping", "url", reqBody.URL)
	}
	return &registerResp, nil
}

// GetPhotos retrieves the registered photos for a source. An empty source
// returns every photo.
func (pc *PhotoClient) GetPhotos(ctx context.Context, source string) ([]store.GalleryPhoto, error) {
	path := "/admin/gallery"
	if source != "" {
		path += "?source=" + url.QueryEscape(source)
	}

	resp, body, err := pc.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, serverError(resp, body)
	}

	var listResp models.GalleryListResponse
	if err := json.Unmarshal(body, &listResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return listResp.Photos, nil
}

// DeletePhoto removes a photo from the gallery. A photo that is already gone
// is not an error.
func (pc *PhotoClient) DeletePhoto(ctx context.Context, id string) error {
	resp, body, err := pc.do(ctx, http.MethodDelete, "/admin/gallery/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		return serverError(resp, body)
	}
	return nil
}
