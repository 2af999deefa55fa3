package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"muzipics/models"
)

const huggingFaceAPIURLFormat = "https://api-inference.huggingface.co/models/%s"

// HuggingFaceProvider implements ImageProvider against the Hugging Face
// hosted inference API.
type HuggingFaceProvider struct {
	Client  *http.Client
	Token   string
	BaseURL string // Overridable for tests; defaults to the public API host
}

// NewHuggingFaceProvider creates a new Hugging Face client.
func NewHuggingFaceProvider(token string) *HuggingFaceProvider {
	return &HuggingFaceProvider{
		Client: &http.Client{},
		Token:  token,
	}
}

// GetName returns the name of the provider.
func (p *HuggingFaceProvider) GetName() string {
	return "huggingface"
}

func (p *HuggingFaceProvider) modelURL(model string) string {
	if p.BaseURL != "" {
		return strings.TrimSuffix(p.BaseURL, "/") + "/" + model
	}
	return fmt.Sprintf(huggingFaceAPIURLFormat, model)
}

// hfParameters matches the "parameters" object of the inference payload.
type hfParameters struct {
	GuidanceScale     float64 `json:"guidance_scale"`
	NumInferenceSteps int     `json:"num_inference_steps"`
	NegativePrompt    string  `json:"negative_prompt"`
	Width             int     `json:"width"`
	Height            int     `json:"height"`
	Seed              *int64  `json:"seed,omitempty"`
}

// hfPayload matches the JSON body of a text-to-image inference request.
type hfPayload struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
	Options    struct {
		WaitForModel bool `json:"wait_for_model"`
	} `json:"options"`
}

// Generate sends a text-to-image request. A 404 for a non-default model is
// retried exactly once against the fallback model with the same parameters;
// no other status is retried, and a failing fallback is not retried either.
func (p *HuggingFaceProvider) Generate(ctx context.Context, input GenerationInput) (*GenerationOutput, error) {
	payload := hfPayload{Inputs: input.Prompt}
	payload.Parameters = hfParameters{
		GuidanceScale:     input.Guidance,
		NumInferenceSteps: input.Steps,
		NegativePrompt:    input.NegativePrompt,
		Width:             input.Width,
		Height:            input.Height,
		Seed:              input.Seed,
	}
	payload.Options.WaitForModel = true

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("huggingface: failed to marshal payload: %w", err)
	}

	log.Printf("Calling provider '%s' with model '%s'", p.GetName(), input.Model)

	out, upErr, err := p.post(ctx, input.Model, "application/json", body)
	if err != nil {
		return nil, err
	}
	if upErr != nil {
		if upErr.Status == http.StatusNotFound && input.Model != models.FallbackModelID {
			log.Printf("Model '%s' not found upstream, retrying with fallback '%s'", input.Model, models.FallbackModelID)
			out, upErr, err = p.post(ctx, models.FallbackModelID, "application/json", body)
			if err != nil {
				return nil, err
			}
		}
		if upErr != nil {
			return nil, upErr
		}
	}
	return out, nil
}

// Transform sends raw image bytes to an image-to-image model. There is no
// fallback model for transforms.
func (p *HuggingFaceProvider) Transform(ctx context.Context, model string, image []byte) (*GenerationOutput, error) {
	log.Printf("Calling provider '%s' with model '%s' (image-to-image, %d bytes)", p.GetName(), model, len(image))

	out, upErr, err := p.post(ctx, model, "image/png", image)
	if err != nil {
		return nil, err
	}
	if upErr != nil {
		return nil, upErr
	}
	return out, nil
}

// post performs one inference call. Transport failures come back as error,
// non-2xx answers as *UpstreamError, success as *GenerationOutput.
func (p *HuggingFaceProvider) post(ctx context.Context, model, contentType string, body []byte) (*GenerationOutput, *UpstreamError, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.modelURL(model), bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("huggingface: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.Token)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "image/png")

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("huggingface: failed to call external API: %w", err)
	}
	defer resp.Body.Close()

	log.Printf("External API responded with status code: %d, Content-Type: %s", resp.StatusCode, resp.Header.Get("Content-Type"))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, extractError(resp), nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("huggingface: failed to read image response body: %w", err)
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "image/png"
	}
	// The body is returned as-is; decoding is left to the consumer.
	return &GenerationOutput{ImageBytes: data, ContentType: ct, Model: model}, nil, nil
}

// extractError builds an UpstreamError from a non-2xx response. JSON bodies
// yield their "error" or "message" field, other bodies their raw text, and
// anything unreadable degrades to a generic "HTTP <status>" message.
func extractError(resp *http.Response) *UpstreamError {
	status := resp.StatusCode
	msg := fmt.Sprintf("HTTP %d", status)

	body, err := io.ReadAll(resp.Body)
	if err != nil || len(body) == 0 {
		return &UpstreamError{Status: status, Message: msg}
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		var parsed struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if jsonErr := json.Unmarshal(body, &parsed); jsonErr == nil {
			if parsed.Error != "" {
				msg = parsed.Error
			} else if parsed.Message != "" {
				msg = parsed.Message
			}
		}
	} else {
		msg = string(body)
	}

	return &UpstreamError{Status: status, Message: msg}
}
