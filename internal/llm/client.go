package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Turn es un turno de la conversación en el vocabulario del proveedor.
type Turn struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// Part es texto plano o un binario embebido con su MIME type.
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inline_data,omitempty"`
}

type InlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

// StreamClient genera una respuesta de forma incremental y entrega
// cada delta de texto a onDelta en orden de llegada.
type StreamClient interface {
	GenerateStream(ctx context.Context, turns []Turn, onDelta func(delta string)) error
}

// GeminiClient implementa StreamClient contra la API de
// generativelanguage usando streamGenerateContent.
type GeminiClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	logger  *zap.Logger
}

func NewGeminiClient(baseURL, apiKey, model string, logger *zap.Logger) *GeminiClient {
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	return &GeminiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
		logger:  logger,
	}
}

type generateRequest struct {
	Contents         []Turn           `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type streamChunk struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GenerateStream envía la conversación y lee el cuerpo como JSON
// delimitado por saltos de línea. Las líneas que no parsean se
// descartan en silencio; el stream continúa.
func (c *GeminiClient) GenerateStream(ctx context.Context, turns []Turn, onDelta func(delta string)) error {
	if c.apiKey == "" {
		return fmt.Errorf("gemini api key not configured")
	}

	reqBody := generateRequest{
		Contents: turns,
		GenerationConfig: generationConfig{
			Temperature:     0.7,
			MaxOutputTokens: 1024,
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if c.logger != nil {
			c.logger.Warn("gemini error status",
				zap.Int("status", resp.StatusCode),
				zap.ByteString("body", respBody),
			)
		}
		return fmt.Errorf("gemini http error: status=%d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	// Un fragmento puede traer párrafos completos; ampliamos el buffer.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		line = strings.Trim(line, ",[]")
		if line == "" {
			continue
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(line), &chunk); err != nil {
			continue
		}
		if len(chunk.Candidates) == 0 || len(chunk.Candidates[0].Content.Parts) == 0 {
			continue
		}
		if text := chunk.Candidates[0].Content.Parts[0].Text; text != "" {
			onDelta(text)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return nil
}
