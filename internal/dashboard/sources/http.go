package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/merchantpulse/merchantpulse-backend/internal/dashboard/window"
	"github.com/merchantpulse/merchantpulse-backend/pkg/config"
	apperrors "github.com/merchantpulse/merchantpulse-backend/pkg/errors"
)

const maxResponseBytes = 8 << 20

// HTTPSource fetches one metric endpoint over HTTP. The reporting window
// is passed as start_date/end_date query parameters in YYYY-MM-DD form.
type HTTPSource struct {
	id       string
	path     string
	critical bool
	baseURL  string
	client   *http.Client
}

// NewHTTPSource builds a source for <baseURL>/<path>.
func NewHTTPSource(id, path string, critical bool, cfg config.SourcesConfig) *HTTPSource {
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSource{
		id:       id,
		path:     strings.TrimPrefix(path, "/"),
		critical: critical,
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		client:   &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSource) ID() string {
	return s.id
}

func (s *HTTPSource) Critical() bool {
	return s.critical
}

func (s *HTTPSource) Fetch(ctx context.Context, win window.Window) (Payload, error) {
	endpoint, err := s.buildURL(win)
	if err != nil {
		return Payload{}, apperrors.Wrap(apperrors.CodeInternal, err, fmt.Sprintf("building %s url", s.id))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Payload{}, apperrors.Wrap(apperrors.CodeInternal, err, fmt.Sprintf("building %s request", s.id))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return Payload{}, apperrors.Wrap(apperrors.CodeSource, err, fmt.Sprintf("fetching %s", s.id))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Payload{}, apperrors.Wrap(apperrors.CodeSource, err, fmt.Sprintf("reading %s response", s.id))
	}

	if resp.StatusCode != http.StatusOK {
		return Payload{}, apperrors.New(
			apperrors.CodeSource,
			fmt.Sprintf("%s returned status %d", s.id, resp.StatusCode),
		)
	}

	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		return Payload{}, apperrors.Wrap(apperrors.CodeSource, err, fmt.Sprintf("decoding %s response", s.id))
	}
	return payload, nil
}

func (s *HTTPSource) buildURL(win window.Window) (string, error) {
	parsed, err := url.Parse(s.baseURL + "/" + s.path)
	if err != nil {
		return "", err
	}
	query := parsed.Query()
	query.Set("start_date", win.StartDate())
	query.Set("end_date", win.EndDate())
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
