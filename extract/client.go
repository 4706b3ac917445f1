package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"noteboard-api/domain"
)

// DefaultTimeout bounds a single generation call when the caller's context
// carries no deadline of its own.
const DefaultTimeout = 60 * time.Second

const dateLayout = "2006-01-02"

const systemPrompt = `You turn meeting notes into a list of actionable tasks.

Respond with a single JSON object and nothing else:
{"items":[{"title":"...","priority":"high|medium|low","due_date":"YYYY-MM-DD or null","description":"... or null"}],"confidence":"high|medium|low"}

Rules:
- "title" is a short imperative sentence and must not be empty.
- "priority" reflects urgency language in the notes; use "medium" when unsure.
- "due_date" is an absolute date resolved against the current date given by
  the user, or null when the notes name no deadline.
- "description" carries relevant context from the notes, or null.
- "confidence" is your overall confidence in the whole list.
- When the notes contain no actionable tasks, return {"items":[],"confidence":"high"}.`

// Client performs one-shot structured task extraction against a
// text-generation model. It never retries; callers decide what transient
// failures mean for them.
type Client struct {
	model   llms.Model
	logger  *log.Logger
	timeout time.Duration
	now     func() time.Time
	tracer  trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the default per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithClock replaces the wall clock used to resolve relative dates.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates an extraction client on top of the given model.
func New(model llms.Model, logger *log.Logger, opts ...Option) *Client {
	c := &Client{
		model:   model,
		logger:  logger,
		timeout: DefaultTimeout,
		now:     time.Now,
		tracer:  otel.Tracer("noteboard-api/extract"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Extract sends exactly one generation request for the given text and
// validates the structured response. An empty item list is a valid outcome;
// every failure is classified as a RateLimitError or an Error.
func (c *Client) Extract(ctx context.Context, text string) (domain.ExtractionResult, error) {
	if strings.TrimSpace(text) == "" {
		return domain.ExtractionResult{}, domain.NewValidationError("text must not be empty")
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	ctx, span := c.tracer.Start(ctx, "extract.generate")
	defer span.End()

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, c.userPrompt(text)),
	}

	start := time.Now()
	resp, err := c.model.GenerateContent(ctx, messages,
		llms.WithJSONMode(),
		llms.WithTemperature(0),
	)
	if err != nil {
		classified := classifyCallError(ctx, err)
		c.logCall(start, 0, classified)
		return domain.ExtractionResult{}, classified
	}

	payload := responseText(resp)
	if payload == "" {
		classified := &Error{Reason: ReasonEmptyResponse, Msg: "response contains no text"}
		c.logCall(start, 0, classified)
		return domain.ExtractionResult{}, classified
	}

	result, err := parseResult(Normalize(payload))
	if err != nil {
		c.logCall(start, 0, err)
		return domain.ExtractionResult{}, err
	}

	span.SetAttributes(
		attribute.Int("extract.items", len(result.Items)),
		attribute.String("extract.confidence", string(result.Confidence)),
	)
	c.logCall(start, len(result.Items), nil)
	return result, nil
}

func (c *Client) userPrompt(text string) string {
	return fmt.Sprintf("Current date: %s\n\nNotes:\n%s", c.now().Format(dateLayout), text)
}

func (c *Client) logCall(start time.Time, items int, err error) {
	if c.logger == nil {
		return
	}
	fields := log.Fields{
		"duration_ms": float64(time.Since(start)) / float64(time.Millisecond),
		"items":       items,
	}
	if err != nil {
		fields["error"] = err.Error()
		c.logger.WithFields(fields).Warn("extract.call")
		return
	}
	c.logger.WithFields(fields).Debug("extract.call")
}

// responseText returns the first non-empty text segment of the response.
func responseText(resp *llms.ContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, choice := range resp.Choices {
		if choice == nil {
			continue
		}
		if s := strings.TrimSpace(choice.Content); s != "" {
			return s
		}
	}
	return ""
}

// wire format of the model's reply. Items is a pointer so a missing field is
// distinguishable from an empty list.
type payloadItem struct {
	Title       string  `json:"title"`
	Priority    string  `json:"priority"`
	DueDate     *string `json:"due_date"`
	Description *string `json:"description"`
}

type payload struct {
	Items      *[]payloadItem `json:"items"`
	Confidence string         `json:"confidence"`
}

// parseResult validates the normalized response text against the extraction
// contract. Unparseable text is malformed; parseable text with wrong fields,
// types, enum values or dates is a schema mismatch.
func parseResult(text string) (domain.ExtractionResult, error) {
	data := []byte(text)
	if !json.Valid(data) {
		return domain.ExtractionResult{}, &Error{Reason: ReasonMalformed, Msg: "response is not valid JSON"}
	}

	dec := sonic.ConfigStd.NewDecoder(strings.NewReader(text))
	dec.DisallowUnknownFields()
	var p payload
	if err := dec.Decode(&p); err != nil {
		return domain.ExtractionResult{}, &Error{Reason: ReasonSchema, Err: err}
	}

	if p.Items == nil {
		return domain.ExtractionResult{}, &Error{Reason: ReasonSchema, Msg: `missing "items" field`}
	}
	confidence := domain.Confidence(strings.ToLower(strings.TrimSpace(p.Confidence)))
	if !confidence.Valid() {
		return domain.ExtractionResult{}, &Error{Reason: ReasonSchema, Msg: fmt.Sprintf("unknown confidence %q", p.Confidence)}
	}

	items := make([]domain.CandidateItem, 0, len(*p.Items))
	for i, it := range *p.Items {
		title := strings.TrimSpace(it.Title)
		if title == "" {
			return domain.ExtractionResult{}, &Error{Reason: ReasonSchema, Msg: fmt.Sprintf("item %d has an empty title", i)}
		}
		priority := domain.Priority(strings.ToLower(strings.TrimSpace(it.Priority)))
		if !priority.Valid() {
			return domain.ExtractionResult{}, &Error{Reason: ReasonSchema, Msg: fmt.Sprintf("item %d has unknown priority %q", i, it.Priority)}
		}
		var due *time.Time
		if it.DueDate != nil && strings.TrimSpace(*it.DueDate) != "" {
			d, err := time.Parse(dateLayout, strings.TrimSpace(*it.DueDate))
			if err != nil {
				return domain.ExtractionResult{}, &Error{Reason: ReasonSchema, Msg: fmt.Sprintf("item %d has unparseable due date %q", i, *it.DueDate)}
			}
			due = &d
		}
		item := domain.CandidateItem{
			Title:    title,
			Priority: priority,
			DueDate:  due,
		}
		if it.Description != nil {
			item.Description = strings.TrimSpace(*it.Description)
		}
		items = append(items, item)
	}

	return domain.ExtractionResult{Items: items, Confidence: confidence}, nil
}
