package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"

	"noteboard-api/domain"
)

type stubModel struct {
	resp     *llms.ContentResponse
	err      error
	messages []llms.MessageContent
}

func (s *stubModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	s.messages = messages
	return s.resp, s.err
}

func (s *stubModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", errors.New("not implemented")
}

func textResponse(content string) *llms.ContentResponse {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: content}}}
}

func fixedClock(date string) func() time.Time {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

func messageText(mc llms.MessageContent) string {
	var sb strings.Builder
	for _, part := range mc.Parts {
		if tc, ok := part.(llms.TextContent); ok {
			sb.WriteString(tc.Text)
		}
	}
	return sb.String()
}

func TestExtractSuccess(t *testing.T) {
	model := &stubModel{resp: textResponse("```json\n" +
		`{"items":[` +
		`{"title":"Update docs","priority":"high","due_date":"2026-02-13","description":"John owns this"},` +
		`{"title":"Review PR","priority":"medium","due_date":null,"description":null}` +
		`],"confidence":"high"}` + "\n```")}
	client := New(model, log.New(), WithClock(fixedClock("2026-02-06")))

	result, err := client.Extract(context.Background(), "John to update docs by Friday. Sarah to review PR.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Confidence != domain.ConfidenceHigh {
		t.Fatalf("unexpected confidence: %q", result.Confidence)
	}
	if len(result.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(result.Items))
	}
	first := result.Items[0]
	if first.Title != "Update docs" || first.Priority != domain.PriorityHigh {
		t.Fatalf("unexpected first item: %+v", first)
	}
	if first.DueDate == nil || first.DueDate.Format("2006-01-02") != "2026-02-13" {
		t.Fatalf("unexpected due date: %v", first.DueDate)
	}
	if result.Items[1].DueDate != nil {
		t.Fatalf("expected nil due date, got %v", result.Items[1].DueDate)
	}

	if len(model.messages) != 2 {
		t.Fatalf("expected system and user messages, got %d", len(model.messages))
	}
	if model.messages[0].Role != llms.ChatMessageTypeSystem {
		t.Fatalf("expected first message to be the system prompt, got %v", model.messages[0].Role)
	}
	user := messageText(model.messages[1])
	if !strings.Contains(user, "Current date: 2026-02-06") {
		t.Fatalf("expected user prompt to embed the current date, got %q", user)
	}
	if !strings.Contains(user, "Sarah to review PR.") {
		t.Fatalf("expected user prompt to embed the raw text, got %q", user)
	}
}

func TestExtractEmptyItemsIsNotAnError(t *testing.T) {
	model := &stubModel{resp: textResponse(`{"items":[],"confidence":"high"}`)}
	client := New(model, log.New())

	result, err := client.Extract(context.Background(), "We had a nice chat about the weather.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Items) != 0 {
		t.Fatalf("expected no items, got %d", len(result.Items))
	}
	if result.Confidence != domain.ConfidenceHigh {
		t.Fatalf("unexpected confidence: %q", result.Confidence)
	}
}

func TestExtractEmptyText(t *testing.T) {
	client := New(&stubModel{}, log.New())
	if _, err := client.Extract(context.Background(), "   "); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestExtractEmptyResponse(t *testing.T) {
	cases := map[string]*llms.ContentResponse{
		"nil response":  nil,
		"no choices":    {},
		"blank content": textResponse("   "),
	}
	for name, resp := range cases {
		t.Run(name, func(t *testing.T) {
			client := New(&stubModel{resp: resp}, log.New())
			_, err := client.Extract(context.Background(), "some notes")
			var exErr *Error
			if !errors.As(err, &exErr) || exErr.Reason != ReasonEmptyResponse {
				t.Fatalf("expected empty response failure, got %v", err)
			}
		})
	}
}

func TestExtractMalformedResponse(t *testing.T) {
	client := New(&stubModel{resp: textResponse("Sure! Here are your tasks: first, update the docs")}, log.New())
	_, err := client.Extract(context.Background(), "some notes")
	var exErr *Error
	if !errors.As(err, &exErr) || exErr.Reason != ReasonMalformed {
		t.Fatalf("expected malformed failure, got %v", err)
	}
}

func TestExtractSchemaMismatch(t *testing.T) {
	cases := map[string]string{
		"missing items":    `{"confidence":"high"}`,
		"unknown field":    `{"items":[],"confidence":"high","extra":1}`,
		"bad confidence":   `{"items":[],"confidence":"certain"}`,
		"bad priority":     `{"items":[{"title":"T","priority":"urgent","due_date":null,"description":null}],"confidence":"high"}`,
		"empty title":      `{"items":[{"title":" ","priority":"low","due_date":null,"description":null}],"confidence":"high"}`,
		"bad due date":     `{"items":[{"title":"T","priority":"low","due_date":"next Friday","description":null}],"confidence":"high"}`,
		"items wrong type": `{"items":"nope","confidence":"high"}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			client := New(&stubModel{resp: textResponse(payload)}, log.New())
			_, err := client.Extract(context.Background(), "some notes")
			var exErr *Error
			if !errors.As(err, &exErr) || exErr.Reason != ReasonSchema {
				t.Fatalf("expected schema mismatch, got %v", err)
			}
		})
	}
}

func TestExtractRateLimited(t *testing.T) {
	model := &stubModel{err: fmt.Errorf("API returned unexpected status code: 429 Too Many Requests")}
	client := New(model, log.New())
	_, err := client.Extract(context.Background(), "some notes")
	var rle *RateLimitError
	if !errors.As(err, &rle) {
		t.Fatalf("expected rate limit error, got %v", err)
	}
}

func TestExtractConfigError(t *testing.T) {
	model := &stubModel{err: errors.New("API returned unexpected status code: 401 invalid api key")}
	client := New(model, log.New())
	_, err := client.Extract(context.Background(), "some notes")
	var exErr *Error
	if !errors.As(err, &exErr) || exErr.Reason != ReasonConfig {
		t.Fatalf("expected config failure, got %v", err)
	}
}

func TestExtractTimeout(t *testing.T) {
	model := &stubModel{err: fmt.Errorf("request failed: %w", context.DeadlineExceeded)}
	client := New(model, log.New())
	_, err := client.Extract(context.Background(), "some notes")
	var exErr *Error
	if !errors.As(err, &exErr) || exErr.Reason != ReasonTimeout {
		t.Fatalf("expected timeout failure, got %v", err)
	}
}

func TestExtractGenericError(t *testing.T) {
	model := &stubModel{err: errors.New("tls handshake broke in a novel way")}
	client := New(model, log.New())
	_, err := client.Extract(context.Background(), "some notes")
	var exErr *Error
	if !errors.As(err, &exErr) || exErr.Reason != ReasonGeneric {
		t.Fatalf("expected generic failure, got %v", err)
	}
}
