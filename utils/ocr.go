package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// OCRClient extracts raw text from a payment-slip image via an external OCR
// HTTP API. The engine treats it as opaque: image in, text out.
type OCRClient struct {
	APIURL string
	APIKey string

	httpClient *http.Client
}

func NewOCRClient() *OCRClient {
	apiURL := os.Getenv("OCR_API_URL")
	if apiURL == "" {
		apiURL = "https://api.ocr.space/parse/image"
	}
	return &OCRClient{
		APIURL:     apiURL,
		APIKey:     os.Getenv("OCR_API_KEY"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type ocrResponse struct {
	ParsedResults []struct {
		ParsedText string `json:"ParsedText"`
	} `json:"ParsedResults"`
	IsErroredOnProcessing bool     `json:"IsErroredOnProcessing"`
	ErrorMessage          []string `json:"ErrorMessage"`
}

// ExtractText uploads the image at path and returns the recognized text.
func (c *OCRClient) ExtractText(ctx context.Context, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIURL, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("apikey", c.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("OCR API returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed ocrResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding OCR response: %w", err)
	}
	if parsed.IsErroredOnProcessing {
		return "", fmt.Errorf("OCR processing failed: %s", strings.Join(parsed.ErrorMessage, "; "))
	}

	var text strings.Builder
	for _, r := range parsed.ParsedResults {
		text.WriteString(r.ParsedText)
	}
	return text.String(), nil
}
