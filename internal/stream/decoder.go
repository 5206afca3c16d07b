// Package stream reassembles model text from a streamed generate response.
package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
)

// textField matches the value of every "text" field in a chunk. The value is
// matched lazily and skips over escaped characters so \" does not end it.
var textField = regexp.MustCompile(`"text"\s*:\s*"((?:[^"\\]|\\.)*?)"`)

// FragmentError reports a "text" value that could not be unescaped.
type FragmentError struct {
	Raw string
	Err error
}

func (e *FragmentError) Error() string {
	return fmt.Sprintf("decode fragment %q: %v", e.Raw, e.Err)
}

func (e *FragmentError) Unwrap() error {
	return e.Err
}

// ExtractTextFragments returns the unescaped value of every "text" field in
// chunk, in order. The chunk does not need to be valid JSON. Values that fail
// to unescape are left out.
func ExtractTextFragments(chunk string) []string {
	fragments, _ := extract(chunk)
	return fragments
}

func extract(chunk string) ([]string, []error) {
	matches := textField.FindAllStringSubmatch(chunk, -1)
	if len(matches) == 0 {
		return nil, nil
	}

	fragments := make([]string, 0, len(matches))
	var errs []error
	for _, m := range matches {
		var s string
		if err := json.Unmarshal([]byte(`"`+m[1]+`"`), &s); err != nil {
			errs = append(errs, &FragmentError{Raw: m[1], Err: err})
			continue
		}
		fragments = append(fragments, s)
	}
	return fragments, errs
}

// Decoder accumulates the text fragments of a stream.
type Decoder struct {
	logger *slog.Logger
}

// NewDecoder creates a Decoder that logs skipped fragments to logger.
func NewDecoder(logger *slog.Logger) *Decoder {
	return &Decoder{logger: logger}
}

// Decode reads r to EOF and returns all fragments concatenated.
func (d *Decoder) Decode(ctx context.Context, r io.Reader) (string, error) {
	return d.DecodeFunc(ctx, r, nil)
}

// DecodeFunc is Decode with a callback invoked for each fragment as soon as it
// is read. onFragment may be nil.
//
// The stream is consumed one line at a time. A JSON string literal never holds
// a raw newline, so a complete "text" value never straddles two lines.
func (d *Decoder) DecodeFunc(ctx context.Context, r io.Reader, onFragment func(string)) (string, error) {
	br := bufio.NewReader(r)
	var sb strings.Builder

	for {
		if err := ctx.Err(); err != nil {
			return sb.String(), fmt.Errorf("decode stream: %w", err)
		}

		line, readErr := br.ReadString('\n')
		if line != "" {
			fragments, errs := extract(line)
			for _, err := range errs {
				d.logger.Warn("skipping undecodable stream fragment", "error", err)
			}
			for _, f := range fragments {
				sb.WriteString(f)
				if onFragment != nil {
					onFragment(f)
				}
			}
		}

		if errors.Is(readErr, io.EOF) {
			return sb.String(), nil
		}
		if readErr != nil {
			return sb.String(), fmt.Errorf("read stream: %w", readErr)
		}
	}
}
