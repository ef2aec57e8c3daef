// Package genai wraps the OpenAI API behind the contracts the refinement
// engine depends on: structured JSON completions (text and multimodal) and
// gpt-image-1 generation/edits.
package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"ad-image-studio/internal/adgen"
)

const (
	defaultTextModel  = "gpt-4-turbo"
	defaultImageModel = "gpt-image-1"

	conceptTemperature = 0.7
	critiqueMaxTokens  = 1500
)

type Options struct {
	APIKey     string
	BaseURL    string
	TextModel  string
	ImageModel string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

type Client struct {
	api        openai.Client
	textModel  string
	imageModel string
	logger     *slog.Logger
}

func New(opts Options) *Client {
	textModel := strings.TrimSpace(opts.TextModel)
	if textModel == "" {
		textModel = defaultTextModel
	}

	imageModel := strings.TrimSpace(opts.ImageModel)
	if imageModel == "" {
		imageModel = defaultImageModel
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if strings.TrimSpace(opts.BaseURL) != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(strings.TrimSpace(opts.BaseURL)))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}

	return &Client{
		api:        openai.NewClient(reqOpts...),
		textModel:  textModel,
		imageModel: imageModel,
		logger:     logger,
	}
}

var (
	_ adgen.TextCompleter = (*Client)(nil)
	_ adgen.ImageService  = (*Client)(nil)
)

func (c *Client) CompleteStructured(ctx context.Context, system, user string) (json.RawMessage, error) {
	return c.complete(ctx, c.conceptParams(system, user))
}

func (c *Client) CompleteStructuredMultimodal(ctx context.Context, system, user string, img adgen.Image) (json.RawMessage, error) {
	return c.complete(ctx, c.critiqueParams(system, user, img))
}

// conceptParams samples at a fixed temperature and leaves the token limit to
// the model default.
func (c *Client) conceptParams(system, user string) openai.ChatCompletionNewParams {
	params := c.chatParams(system, openai.UserMessage(user))
	params.Temperature = openai.Float(conceptTemperature)
	return params
}

// critiqueParams caps the critique length and keeps the default temperature.
func (c *Client) critiqueParams(system, user string, img adgen.Image) openai.ChatCompletionNewParams {
	parts := []openai.ChatCompletionContentPartUnionParam{
		openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL:    img.DataURL(),
			Detail: "low",
		}),
		openai.TextContentPart(user),
	}
	params := c.chatParams(system, openai.UserMessage(parts))
	params.MaxTokens = openai.Int(critiqueMaxTokens)
	return params
}

func (c *Client) chatParams(system string, userMsg openai.ChatCompletionMessageParamUnion) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.textModel),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			userMsg,
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}
}

func (c *Client) complete(ctx context.Context, params openai.ChatCompletionNewParams) (json.RawMessage, error) {
	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, classify(err, "completion request failed")
	}
	if len(resp.Choices) == 0 {
		return nil, adgen.WrapErr(adgen.KindUpstreamError, "completion returned no choices", nil)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if !json.Valid([]byte(content)) {
		c.logger.Warn("completion body is not valid JSON", "model", c.textModel)
		return nil, adgen.WrapErr(adgen.KindMalformedOutput, "completion body is not valid JSON", nil)
	}

	return json.RawMessage(content), nil
}

func (c *Client) GenerateImage(ctx context.Context, prompt, size string) (adgen.Image, error) {
	resp, err := c.api.Images.Generate(ctx, openai.ImageGenerateParams{
		Model:  openai.ImageModel(c.imageModel),
		Prompt: prompt,
		N:      openai.Int(1),
		Size:   openai.ImageGenerateParamsSize(size),
	})
	if err != nil {
		return adgen.Image{}, classify(err, "image generation failed")
	}
	return decodeImagePayload(resp)
}

// EditImage streams the base image from memory; no scratch files are written,
// so there is nothing to clean up on any exit path.
func (c *Client) EditImage(ctx context.Context, base adgen.Image, instructions, size string) (adgen.Image, error) {
	mime := base.MIME
	if mime == "" {
		mime = "image/png"
	}

	resp, err := c.api.Images.Edit(ctx, openai.ImageEditParams{
		Image: openai.ImageEditParamsImageUnion{
			OfFile: openai.File(bytes.NewReader(base.Data), "image.png", mime),
		},
		Model:  openai.ImageModel(c.imageModel),
		Prompt: instructions,
		N:      openai.Int(1),
		Size:   openai.ImageEditParamsSize(size),
	})
	if err != nil {
		return adgen.Image{}, classify(err, "image edit failed")
	}
	return decodeImagePayload(resp)
}

func decodeImagePayload(resp *openai.ImagesResponse) (adgen.Image, error) {
	if resp == nil || len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return adgen.Image{}, adgen.WrapErr(adgen.KindUpstreamError, "image response carries no b64_json payload", nil)
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return adgen.Image{}, adgen.WrapErr(adgen.KindMalformedOutput, "image payload is not valid base64", err)
	}

	return adgen.Image{MIME: "image/png", Data: data}, nil
}

// classify maps SDK failures onto the domain taxonomy. Moderation rejections
// are split out so the surface can tell the user to soften the instructions
// and retry.
func classify(err error, message string) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == "moderation_blocked" || strings.Contains(apiErr.Message, "moderation_blocked") {
			return adgen.WrapErr(adgen.KindModerationBlocked, "request was blocked by the safety system", err)
		}
	}
	return adgen.WrapErr(adgen.KindUpstreamError, message, err)
}
