package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"clusterform/internal/domain"
	"clusterform/internal/port"
)

// Format is the serialization of a model definition.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// maxModelSize bounds what is read from a remote definition.
const maxModelSize = 16 << 20

var validate = validator.New()

// Loader reads model definitions from local files or http(s) URLs.
type Loader struct {
	client *http.Client
}

var _ port.ModelSource = (*Loader)(nil)

func NewLoader(timeout time.Duration) *Loader {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Loader{
		client: &http.Client{Timeout: timeout},
	}
}

// Load reads and validates the definition at ref.
func (l *Loader) Load(ctx context.Context, ref string) (*domain.Model, error) {
	if isURL(ref) {
		return l.loadURL(ctx, ref)
	}

	data, err := os.ReadFile(ref)
	if err != nil {
		return nil, fmt.Errorf("failed to read model: %w", err)
	}
	return Parse(data, FormatFor(ref, ""), ref)
}

func (l *Loader) loadURL(ctx context.Context, url string) (*domain.Model, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-store")
	req.Header.Set("Accept", "application/json, application/yaml")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to fetch model: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxModelSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return Parse(data, FormatFor(url, resp.Header.Get("Content-Type")), url)
}

// FormatFor picks the format from a file extension, then a content type.
// JSON is the default.
func FormatFor(name, contentType string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	}
	if strings.Contains(contentType, "yaml") {
		return FormatYAML
	}
	return FormatJSON
}

// Parse decodes and validates a model definition.
func Parse(data []byte, format Format, source string) (*domain.Model, error) {
	var mf modelFile
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &mf)
	default:
		err = json.Unmarshal(data, &mf)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidModel, err)
	}

	if err := check(&mf); err != nil {
		return nil, err
	}

	return mf.toDomain(source), nil
}

func check(mf *modelFile) error {
	if err := validate.Struct(mf); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := lo.Map(verrs, func(fe validator.FieldError, _ int) string {
				return fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
			})
			return fmt.Errorf("%w: %s", domain.ErrInvalidModel, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", domain.ErrInvalidModel, err)
	}

	seen := make(map[domain.ClusterID]bool, len(mf.Centroids))
	for i, c := range mf.Centroids {
		id := c.id()
		if id == "" {
			return fmt.Errorf("%w: centroid #%d has no cluster id", domain.ErrInvalidModel, i)
		}
		if seen[id] {
			return fmt.Errorf("%w: duplicate cluster id %s", domain.ErrInvalidModel, id)
		}
		seen[id] = true
	}
	return nil
}

func isURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}
