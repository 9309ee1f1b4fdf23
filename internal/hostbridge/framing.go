package hostbridge

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

type framing int

const (
	framingUnknown framing = iota
	// framingHeader is LSP-style Content-Length framing.
	framingHeader
	// framingLine is one JSON document per line.
	framingLine
)

func (f framing) String() string {
	switch f {
	case framingHeader:
		return "header"
	case framingLine:
		return "line"
	default:
		return "unknown"
	}
}

// codec reads requests in either framing and answers in the framing of the
// first request it saw.
type codec struct {
	r    *bufio.Reader
	w    *bufio.Writer
	mode framing
}

func newCodec(r io.Reader, w io.Writer) *codec {
	return &codec{r: bufio.NewReader(r), w: bufio.NewWriter(w)}
}

// read returns the next message payload. The first call fixes the output
// framing.
func (c *codec) read() ([]byte, error) {
	payload, mode, err := readMessage(c.r)
	if err != nil {
		return nil, err
	}
	if c.mode == framingUnknown {
		c.mode = mode
	}
	return payload, nil
}

func (c *codec) write(payload []byte) error {
	if c.mode == framingLine {
		if _, err := c.w.Write(payload); err != nil {
			return err
		}
		if err := c.w.WriteByte('\n'); err != nil {
			return err
		}
		return c.w.Flush()
	}
	if _, err := fmt.Fprintf(c.w, "Content-Length: %d\r\n\r\n", len(payload)); err != nil {
		return err
	}
	if _, err := c.w.Write(payload); err != nil {
		return err
	}
	return c.w.Flush()
}

func readMessage(r *bufio.Reader) ([]byte, framing, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line == "" {
			return nil, framingUnknown, io.EOF
		}
		return nil, framingUnknown, err
	}

	// Blank lines between messages are skipped.
	for strings.TrimSpace(line) == "" {
		if line, err = r.ReadString('\n'); err != nil {
			if errors.Is(err, io.EOF) && strings.TrimSpace(line) == "" {
				return nil, framingUnknown, io.EOF
			}
			return nil, framingUnknown, err
		}
	}

	if trimmed := strings.TrimSpace(line); strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		payload, err := readJSONLines(r, line)
		return payload, framingLine, err
	}

	length, err := readHeaders(r, line)
	if err != nil {
		return nil, framingHeader, err
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, framingHeader, err
	}
	return payload, framingHeader, nil
}

// readJSONLines accumulates lines until they form one JSON document.
func readJSONLines(r *bufio.Reader, first string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(first)
	for {
		if doc := bytes.TrimSpace(buf.Bytes()); json.Valid(doc) {
			return doc, nil
		}
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		buf.WriteString(line)
	}
}

func readHeaders(r *bufio.Reader, line string) (int, error) {
	length := -1
	for {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			break
		}
		if key, value, ok := strings.Cut(trimmed, ":"); ok && strings.EqualFold(strings.TrimSpace(key), "Content-Length") {
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil || n < 0 {
				return 0, fmt.Errorf("invalid Content-Length %q", strings.TrimSpace(value))
			}
			length = n
		}

		var err error
		if line, err = r.ReadString('\n'); err != nil {
			return 0, err
		}
	}
	if length < 0 {
		return 0, errors.New("missing Content-Length header")
	}
	return length, nil
}
