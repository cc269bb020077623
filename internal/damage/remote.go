package damage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"pattern-reader/internal/imageio"
)

// RemoteModel posts images to an HTTP inference endpoint.
type RemoteModel struct {
	modelPath    string
	inferenceURL string
	client       *http.Client
}

// NewRemoteModel creates a RemoteModel. A nil client gets a 60s timeout.
func NewRemoteModel(modelPath, inferenceURL string, client *http.Client) *RemoteModel {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &RemoteModel{modelPath: modelPath, inferenceURL: inferenceURL, client: client}
}

// Name returns the model path the inference service was asked to serve.
func (m *RemoteModel) Name() string { return m.modelPath }

// Predict sends img as a JPEG multipart upload along with the confidence
// threshold and parses the returned detections.
func (m *RemoteModel) Predict(ctx context.Context, img image.Image, threshold float64) ([]Detection, error) {
	data, err := imageio.Encode(img, imageio.JPEG, 95)
	if err != nil {
		return nil, err
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "image.jpg")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}
	if err := writer.WriteField("conf", strconv.FormatFloat(threshold, 'f', -1, 64)); err != nil {
		return nil, fmt.Errorf("failed to write threshold: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.inferenceURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inference failed with status: %d", resp.StatusCode)
	}

	var result struct {
		Detections []Detection `json:"detections"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return result.Detections, nil
}

// HealthURL is the endpoint CheckHealth probes: the inference URL with its
// last path element replaced by "health".
func (m *RemoteModel) HealthURL() string {
	u, err := url.Parse(m.inferenceURL)
	if err != nil {
		return m.inferenceURL + "/health"
	}
	u.Path = path.Join("/", path.Dir(u.Path), "health")
	u.RawQuery = ""
	return u.String()
}

// CheckHealth reports whether the inference service answers.
func (m *RemoteModel) CheckHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.HealthURL(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("inference service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inference service unhealthy: %d", resp.StatusCode)
	}
	return nil
}

// RemoteLoader returns a Loader that succeeds once the inference service
// passes a health check.
func RemoteLoader(modelPath, inferenceURL string, client *http.Client) Loader {
	return func(ctx context.Context) (Model, error) {
		m := NewRemoteModel(modelPath, inferenceURL, client)
		if err := m.CheckHealth(ctx); err != nil {
			return nil, err
		}
		return m, nil
	}
}
