package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"github.com/koscakluka/duolog-core/core/audio"
	"github.com/koscakluka/duolog-core/core/texttospeech"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const speakURL = "https://api.deepgram.com/v1/speak"

type SynthesisClient struct {
	apiKey     string
	voice      deepgramVoice
	httpClient *http.Client
}

type ClientOption func(*SynthesisClient)

func WithAPIKey(apiKey string) ClientOption {
	return func(c *SynthesisClient) { c.apiKey = apiKey }
}

func WithDefaultVoice(voice deepgramVoice) ClientOption {
	return func(c *SynthesisClient) { c.voice = voice }
}

func NewSynthesisClient(opts ...ClientOption) (*SynthesisClient, error) {
	client := &SynthesisClient{
		voice: defaultVoice,
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
		apiKey, ok := os.LookupEnv("DEEPGRAM_API_KEY")
		if !ok {
			return nil, fmt.Errorf("deepgram api key not found")
		}
		client.apiKey = apiKey
	}

	return client, nil
}

// Synthesize requests a whole speech clip for text in one round trip. The
// returned bytes are raw audio in the requested encoding (no container).
func (c *SynthesisClient) Synthesize(ctx context.Context, text string, opts ...texttospeech.SynthesisOption) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "synthesize speech")
	defer span.End()

	options := texttospeech.SynthesisOptions{EncodingInfo: audio.GetDefaultEncodingInfo()}
	for _, opt := range opts {
		opt(&options)
	}

	voice := c.voice
	if options.Voice != "" {
		voice = deepgramVoice(options.Voice)
	} else if options.Language != "" {
		voice = voiceForLanguage(options.Language, c.voice)
	}

	span.SetAttributes(
		attribute.String("request.voice", string(voice)),
		attribute.String("request.language", options.Language),
		attribute.Int("request.text_length", len(text)),
	)

	urlValues := url.Values{}
	urlValues.Set("model", string(voice))
	urlValues.Set("encoding", options.EncodingInfo.Format.Name())
	urlValues.Set("sample_rate", strconv.Itoa(options.EncodingInfo.SampleRate))
	urlValues.Set("container", "none")

	requestBodyBytes, err := json.Marshal(struct {
		Text string `json:"text"`
	}{Text: text})
	if err != nil {
		err = fmt.Errorf("error marshalling JSON: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST",
		speakURL+"?"+urlValues.Encode(), bytes.NewBuffer(requestBodyBytes))
	if err != nil {
		err = fmt.Errorf("error creating HTTP request: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("error sending request: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		if errorBody, err := io.ReadAll(resp.Body); err == nil {
			span.SetAttributes(attribute.String("response.error", string(errorBody)))
		}

		err := fmt.Errorf("non-OK HTTP status: %s", resp.Status)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	clip, err := io.ReadAll(resp.Body)
	if err != nil {
		err = fmt.Errorf("error reading audio body: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("response.audio_bytes", len(clip)))
	return clip, nil
}
