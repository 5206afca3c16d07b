// Package normalize turns gateway responses into model text, structured
// results, or a single *model.Error.
package normalize

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/screener/internal/model"
)

// errorBody is the {"error":{"message":...}} envelope used by both the
// upstream API and the gateway.
type errorBody struct {
	Error *struct {
		Message string `json:"message"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// ErrorFromResponse reads resp.Body once and converts a failed response into
// an UpstreamRejection. The caller still owns closing the body.
func ErrorFromResponse(resp *http.Response) *model.Error {
	// A failed read still leaves whatever arrived; the message falls back
	// to the generic one when nothing did.
	body, _ := io.ReadAll(resp.Body)
	e := ErrorFromBody(resp.StatusCode, body)
	if up, ok := e.Err.(*model.UpstreamError); ok {
		up.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
	}
	return e
}

// ErrorFromBody derives the user-facing message for a non-2xx status: the
// JSON error.message when present, else the raw body, else a generic message.
// The gateway's missing-credential code yields KindGatewayConfig.
func ErrorFromBody(status int, body []byte) *model.Error {
	raw := string(body)
	msg := strings.TrimSpace(raw)

	kind := model.KindUpstreamRejection
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Error != nil {
		if eb.Error.Code == model.CodeGatewayConfig {
			kind = model.KindGatewayConfig
			msg = model.MsgGatewayConfig
		} else if eb.Error.Message != "" {
			msg = mapUpstreamMessage(eb.Error.Message)
		}
	}
	if msg == "" {
		msg = model.MsgTransport
	}

	return &model.Error{
		Kind:    kind,
		Message: msg,
		Err: &model.UpstreamError{
			StatusCode: status,
			Message:    msg,
			RawBody:    raw,
		},
	}
}

func mapUpstreamMessage(msg string) string {
	switch {
	case strings.Contains(msg, "API key not valid"):
		return model.MsgInvalidAPIKey
	case strings.Contains(msg, "permission to access"), strings.Contains(msg, "billing"):
		return model.MsgPermissionBilling
	default:
		return msg
	}
}

// Transport wraps a failure to reach the gateway.
func Transport(err error) *model.Error {
	return &model.Error{Kind: model.KindTransport, Message: model.MsgTransport, Err: err}
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(value); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// generateResponse holds the part of a generateContent response we read.
type generateResponse struct {
	Candidates []struct {
		Content *struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// TextFromGenerate returns the text of the first part of the first candidate.
func TextFromGenerate(body []byte) (string, error) {
	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &model.Error{
			Kind:    model.KindModelOutputFormat,
			Message: model.MsgModelOutputFormat,
			Err:     fmt.Errorf("parse generate response: %w", err),
		}
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		cause := fmt.Errorf("generate response has no candidate content")
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			cause = fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason)
		} else if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != "" {
			cause = fmt.Errorf("generate response has no content (finish reason %s)", resp.Candidates[0].FinishReason)
		}
		return "", &model.Error{
			Kind:    model.KindModelOutputFormat,
			Message: "The AI model returned no content.",
			Err:     cause,
		}
	}

	return resp.Candidates[0].Content.Parts[0].Text, nil
}
