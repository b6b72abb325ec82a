package objectstore

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"property-maintenance-backend/config"
)

// Cloudinary uploads objects with signed requests to the Cloudinary upload API.
type Cloudinary struct {
	cfg    config.CloudinaryConfig
	client *http.Client
	log    *zap.Logger
	now    func() time.Time
}

// NewCloudinary validates credentials and returns a Cloudinary-backed store.
func NewCloudinary(cfg config.CloudinaryConfig, log *zap.Logger) (*Cloudinary, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary cloud name, api key and api secret are required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.cloudinary.com"
	}
	return &Cloudinary{
		cfg:    cfg,
		client: &http.Client{Timeout: 60 * time.Second},
		log:    log,
		now:    time.Now,
	}, nil
}

// Upload sends the object as a signed multipart upload. The public id is the
// object path (under the configured folder) without its extension.
func (c *Cloudinary) Upload(ctx context.Context, objectPath, contentType string, body io.Reader) (string, error) {
	p, err := cleanPath(objectPath)
	if err != nil {
		return "", err
	}
	publicID := c.publicID(p)
	timestamp := strconv.FormatInt(c.now().Unix(), 10)

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	fields := map[string]string{
		"api_key":   c.cfg.APIKey,
		"public_id": publicID,
		"timestamp": timestamp,
		"signature": sign(publicID, timestamp, c.cfg.APISecret),
	}
	for k, v := range fields {
		if err := form.WriteField(k, v); err != nil {
			return "", fmt.Errorf("failed to build upload form: %w", err)
		}
	}
	part, err := form.CreateFormFile("file", path.Base(p))
	if err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := io.Copy(part, body); err != nil {
		return "", fmt.Errorf("failed to read upload body: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/v1_1/" + c.cfg.CloudName + "/image/upload"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	res, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("cloudinary upload failed: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read cloudinary response: %w", err)
	}

	var cloudRes struct {
		SecureURL string `json:"secure_url"`
		URL       string `json:"url"`
		Error     struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &cloudRes); err != nil {
		return "", fmt.Errorf("cloudinary returned status %d with unreadable body: %w", res.StatusCode, err)
	}
	if res.StatusCode != http.StatusOK || cloudRes.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload rejected (status %d): %s", res.StatusCode, cloudRes.Error.Message)
	}

	out := cloudRes.SecureURL
	if out == "" {
		out = cloudRes.URL
	}
	if out == "" {
		return "", fmt.Errorf("cloudinary returned no URL for %s", publicID)
	}

	c.log.Debug("uploaded object", zap.String("public_id", publicID), zap.String("content_type", contentType))
	return out, nil
}

// Delete destroys the image stored for objectPath.
func (c *Cloudinary) Delete(ctx context.Context, objectPath string) error {
	p, err := cleanPath(objectPath)
	if err != nil {
		return err
	}
	publicID := c.publicID(p)
	timestamp := strconv.FormatInt(c.now().Unix(), 10)

	form := url.Values{}
	form.Set("api_key", c.cfg.APIKey)
	form.Set("public_id", publicID)
	form.Set("timestamp", timestamp)
	form.Set("signature", sign(publicID, timestamp, c.cfg.APISecret))

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/v1_1/" + c.cfg.CloudName + "/image/destroy"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("cloudinary destroy failed: %w", err)
	}
	defer res.Body.Close()

	var destroyRes struct {
		Result string `json:"result"`
		Error  struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(res.Body).Decode(&destroyRes); err != nil {
		return fmt.Errorf("cloudinary returned status %d with unreadable body: %w", res.StatusCode, err)
	}
	if res.StatusCode != http.StatusOK || destroyRes.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy rejected (status %d): %s", res.StatusCode, destroyRes.Error.Message)
	}
	// "not found" means there is nothing left to remove.
	if destroyRes.Result != "ok" && destroyRes.Result != "not found" {
		return fmt.Errorf("cloudinary destroy of %s returned %q", publicID, destroyRes.Result)
	}

	c.log.Debug("deleted object", zap.String("public_id", publicID))
	return nil
}

// publicID is the cleaned path under the configured folder, without its extension.
func (c *Cloudinary) publicID(p string) string {
	id := strings.TrimSuffix(p, path.Ext(p))
	if c.cfg.Folder != "" {
		id = c.cfg.Folder + "/" + id
	}
	return id
}

// sign produces the SHA-1 request signature Cloudinary expects.
func sign(publicID, timestamp, secret string) string {
	payload := fmt.Sprintf("public_id=%s&timestamp=%s%s", publicID, timestamp, secret)
	return fmt.Sprintf("%x", sha1.Sum([]byte(payload)))
}
