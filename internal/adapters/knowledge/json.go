package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/0xcro3dile/kbchat/internal/domain/entities"
)

// JSONSource loads a JSON array of chunks from a local file or an
// http(s) URL.
type JSONSource struct {
	location string
	client   *http.Client
}

// NewJSONSource creates a source for the given path or URL.
func NewJSONSource(location string) *JSONSource {
	return &JSONSource{
		location: location,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Location returns the configured path or URL.
func (s *JSONSource) Location() string { return s.location }

// IsRemote reports whether the source is fetched over HTTP.
func (s *JSONSource) IsRemote() bool {
	return strings.HasPrefix(s.location, "http://") || strings.HasPrefix(s.location, "https://")
}

// Load reads and decodes the whole file.
func (s *JSONSource) Load(ctx context.Context) ([]entities.Chunk, error) {
	if s.location == "" {
		return nil, fmt.Errorf("json source: no location configured")
	}

	var (
		r   io.ReadCloser
		err error
	)
	if s.IsRemote() {
		r, err = s.fetch(ctx)
	} else {
		r, err = os.Open(s.location)
	}
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return DecodeChunks(r)
}

func (s *JSONSource) fetch(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.location, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", s.location, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetching %s: status %d", s.location, resp.StatusCode)
	}
	return resp.Body, nil
}

// DecodeChunks decodes a JSON array of {source, text, embedding} objects.
func DecodeChunks(r io.Reader) ([]entities.Chunk, error) {
	var chunks []entities.Chunk
	if err := json.NewDecoder(r).Decode(&chunks); err != nil {
		return nil, fmt.Errorf("decoding knowledge base: %w", err)
	}
	if chunks == nil {
		chunks = []entities.Chunk{}
	}
	return chunks, nil
}
