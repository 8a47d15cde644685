// Package classifier talks to the external handwriting classification
// service. Its verdict becomes a stage-1 draft; the engine never calls it.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/alexanderramin/caseflow/internal/app"
	"github.com/alexanderramin/caseflow/internal/domain"
)

var (
	// ErrUnavailable indicates the classifier could not be reached.
	ErrUnavailable = errors.New("handwriting classifier unavailable")

	// ErrTimeout indicates the request exceeded the configured timeout.
	ErrTimeout = errors.New("handwriting classifier timed out")

	// ErrInvalidOutput indicates the response did not carry a usable verdict.
	ErrInvalidOutput = errors.New("invalid handwriting classifier output")
)

const analyzePath = "/analyze-handwriting/"

// Client implements app.HandwritingClassifier over HTTP.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
			},
		},
	}
}

var _ app.HandwritingClassifier = (*Client)(nil)

// analyzeResponse is the JSON body returned by POST /analyze-handwriting/.
type analyzeResponse struct {
	Score          *float64       `json:"dyslexia_score"`
	Interpretation string         `json:"interpretation"`
	LetterCounts   map[string]int `json:"letter_counts"`
}

func (c *Client) Classify(ctx context.Context, sample app.HandwritingSample) (*domain.HandwritingAnalysis, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, contentType, err := encodeSample(sample)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+analyzePath, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ErrTimeout
		}
		var netErr *net.OpError
		if errors.As(err, &netErr) {
			return nil, ErrUnavailable
		}
		return nil, fmt.Errorf("calling classifier: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classifier returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out analyzeResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}
	if out.Score == nil || out.Interpretation == "" {
		return nil, fmt.Errorf("%w: missing dyslexia_score or interpretation", ErrInvalidOutput)
	}
	return &domain.HandwritingAnalysis{
		Score:          *out.Score,
		Interpretation: out.Interpretation,
		LetterCounts:   out.LetterCounts,
		SampleRef:      sample.Filename,
	}, nil
}

func encodeSample(sample app.HandwritingSample) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, sample.Filename))
	ct := sample.ContentType
	if ct == "" {
		ct = http.DetectContentType(sample.Data)
	}
	h.Set("Content-Type", ct)

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("encoding sample: %w", err)
	}
	if _, err := part.Write(sample.Data); err != nil {
		return nil, "", fmt.Errorf("encoding sample: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("encoding sample: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
