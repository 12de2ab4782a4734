package googletranslate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"os"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const translateURL = "https://translation.googleapis.com/language/translate/v2"

type TranslationClient struct {
	apiKey     string
	httpClient *http.Client
}

type ClientOption func(*TranslationClient)

func WithAPIKey(apiKey string) ClientOption {
	return func(c *TranslationClient) { c.apiKey = apiKey }
}

func NewTranslationClient(opts ...ClientOption) (*TranslationClient, error) {
	client := &TranslationClient{
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
				return operationName + " " + request.URL.Path
			}),
		)},
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.apiKey == "" {
		apiKey, ok := os.LookupEnv("GOOGLE_TRANSLATE_API_KEY")
		if !ok {
			return nil, fmt.Errorf("google translate api key not found")
		}
		client.apiKey = apiKey
	}

	return client, nil
}

// TranslateMultiple translates text into every target language, one request
// per target. A failing target is left out of the result instead of failing
// the whole batch; the joined error reports what was skipped.
func (c *TranslationClient) TranslateMultiple(ctx context.Context, text string, sourceLanguage string, targetLanguages []string) (map[string]string, error) {
	ctx, span := tracer.Start(ctx, "translate text")
	defer span.End()

	span.SetAttributes(
		attribute.String("request.source_language", sourceLanguage),
		attribute.StringSlice("request.target_languages", targetLanguages),
		attribute.Int("request.text_length", len(text)),
	)

	translations := map[string]string{}
	var failed []string
	for _, target := range targetLanguages {
		if target == sourceLanguage {
			translations[target] = text
			continue
		}

		translated, err := c.translate(ctx, text, sourceLanguage, target)
		if err != nil {
			span.RecordError(fmt.Errorf("translation to %q failed: %w", target, err))
			failed = append(failed, target)
			continue
		}

		translations[target] = translated
	}

	if len(failed) > 0 {
		err := fmt.Errorf("failed to translate to: %v", failed)
		span.SetStatus(codes.Error, err.Error())
		return translations, err
	}

	return translations, nil
}

func (c *TranslationClient) translate(ctx context.Context, text, source, target string) (string, error) {
	requestBodyBytes, err := json.Marshal(struct {
		Q      string `json:"q"`
		Source string `json:"source"`
		Target string `json:"target"`
		Format string `json:"format"`
	}{Q: text, Source: source, Target: target, Format: "text"})
	if err != nil {
		return "", fmt.Errorf("error marshalling JSON: %w", err)
	}

	urlValues := url.Values{}
	urlValues.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, "POST",
		translateURL+"?"+urlValues.Encode(), bytes.NewBuffer(requestBodyBytes))
	if err != nil {
		return "", fmt.Errorf("error creating HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("non-OK HTTP status: %s", resp.Status)
	}

	respBodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response body: %w", err)
	}

	var responseBody struct {
		Data struct {
			Translations []struct {
				TranslatedText string `json:"translatedText"`
			} `json:"translations"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBodyBytes, &responseBody); err != nil {
		return "", fmt.Errorf("error unmarshalling response: %w", err)
	}

	if len(responseBody.Data.Translations) == 0 {
		return "", fmt.Errorf("empty translation response")
	}

	return html.UnescapeString(responseBody.Data.Translations[0].TranslatedText), nil
}
