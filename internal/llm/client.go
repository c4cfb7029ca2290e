// Package llm provides the Gemini generation client used for delegated
// markdown extraction and for summarization.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"

	"github.com/docuflow-ai/summary-engine/internal/observability"
)

// ExtractionPrompt instructs the model to transcribe a PDF as markdown.
const ExtractionPrompt = "Extract the text from the PDF in markdown format"

// SummaryPrompt is the fixed instruction for summarization.
const SummaryPrompt = "Summarize the provided document text in 3-5 concise sentences. " +
	"Focus on the main ideas, key facts, and outcomes. " +
	"Do not include metadata, instructions, or apologies."

// MarkdownSummaryInstruction is appended when the stored text is markdown.
const MarkdownSummaryInstruction = "The input text format is Markdown. " +
	"Please return your summary also formatted as Markdown."

// ErrEmptyResponse indicates the model returned no usable content. An empty
// response is a failure, never a valid output.
var ErrEmptyResponse = errors.New("empty response from model")

// Config holds the Vertex AI project and model selection.
type Config struct {
	ProjectID       string
	Region          string
	ExtractionModel string
	SummaryModel    string
}

// Client holds pre-configured generative models for extraction and
// summarization. Construct once at process start and close on shutdown.
type Client struct {
	logger     *observability.Logger
	base       *genai.Client
	extractor  *genai.GenerativeModel
	summarizer *genai.GenerativeModel
}

// NewClient creates a Gemini client with both models configured.
func NewClient(ctx context.Context, logger *observability.Logger, cfg Config) (*Client, error) {
	if cfg.ProjectID == "" || cfg.Region == "" {
		return nil, fmt.Errorf("llm.NewClient: project ID and region must be set")
	}

	base, err := genai.NewClient(ctx, cfg.ProjectID, cfg.Region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	extractor := base.GenerativeModel(cfg.ExtractionModel)
	extractor.GenerationConfig = genai.GenerationConfig{
		Temperature: genai.Ptr[float32](0),
	}

	summarizer := base.GenerativeModel(cfg.SummaryModel)
	summarizer.GenerationConfig = genai.GenerationConfig{
		Temperature: genai.Ptr[float32](0),
		TopP:        genai.Ptr[float32](0.95),
		TopK:        genai.Ptr[int32](20),
	}

	return &Client{
		logger:     logger.WithComponent("llm"),
		base:       base,
		extractor:  extractor,
		summarizer: summarizer,
	}, nil
}

// ExtractMarkdown sends the PDF bytes to the model and returns the extracted
// markdown text.
func (c *Client) ExtractMarkdown(ctx context.Context, pdf []byte) (string, error) {
	return c.generateWithRetry(ctx, func() (string, error) {
		resp, err := c.extractor.GenerateContent(ctx,
			genai.Blob{MIMEType: "application/pdf", Data: pdf},
			genai.Text(ExtractionPrompt),
		)
		if err != nil {
			return "", fmt.Errorf("generate content: %w", err)
		}
		return responseText(resp)
	})
}

// Summarize generates a summary of the given text. When markdown is true the
// prompt additionally instructs the model to answer in markdown.
func (c *Client) Summarize(ctx context.Context, text string, markdown bool) (string, error) {
	prompt := SummaryPrompt
	if markdown {
		prompt += " " + MarkdownSummaryInstruction
	}

	return c.generateWithRetry(ctx, func() (string, error) {
		resp, err := c.summarizer.GenerateContent(ctx,
			genai.Text(prompt+"\n\n"+text),
		)
		if err != nil {
			return "", fmt.Errorf("generate content: %w", err)
		}
		return responseText(resp)
	})
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	if c.base != nil {
		return c.base.Close()
	}
	return nil
}

// responseText flattens a generation response to trimmed text, rejecting
// empty output.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
