package llm

import (
	"bytes"
	"io"
	"strings"
)

const readChunkSize = 4096

// ParseNDJSON incrementally splits an NDJSON body into lines and hands each
// non-empty line to onPayload. A trailing partial line is flushed when the
// body ends without a terminator.
func ParseNDJSON(r io.Reader, onPayload func(string)) error {
	var f ndjsonFramer
	buf := make([]byte, readChunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			f.Feed(buf[:n], onPayload)
		}
		if err == io.EOF {
			f.Close(onPayload)
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// ParseSSE incrementally splits an SSE body into events on blank-line
// boundaries and hands each event's joined data payload to onPayload.
// Payloads include the literal "[DONE]" sentinel; callers distinguish it from
// JSON. A trailing partial event is flushed when the body ends.
func ParseSSE(r io.Reader, onPayload func(string)) error {
	var f sseFramer
	buf := make([]byte, readChunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			f.Feed(buf[:n], onPayload)
		}
		if err == io.EOF {
			f.Close(onPayload)
			return nil
		}
		if err != nil {
			return err
		}
	}
}

type ndjsonFramer struct {
	buf []byte
}

func (f *ndjsonFramer) Feed(p []byte, onPayload func(string)) {
	f.buf = append(f.buf, p...)
	for {
		i := bytes.IndexByte(f.buf, '\n')
		if i < 0 {
			return
		}
		line := strings.TrimSpace(string(f.buf[:i]))
		f.buf = f.buf[i+1:]
		if line != "" {
			onPayload(line)
		}
	}
}

func (f *ndjsonFramer) Close(onPayload func(string)) {
	line := strings.TrimSpace(string(f.buf))
	f.buf = nil
	if line != "" {
		onPayload(line)
	}
}

// sseFramer normalizes CRLF/CR to LF as bytes arrive. A CR at a chunk
// boundary is held back until the next byte so a split CRLF still counts as a
// single newline.
type sseFramer struct {
	buf       []byte
	pendingCR bool
}

func (f *sseFramer) Feed(p []byte, onPayload func(string)) {
	for _, b := range p {
		if f.pendingCR {
			f.pendingCR = false
			f.buf = append(f.buf, '\n')
			if b == '\n' {
				continue
			}
		}
		switch b {
		case '\r':
			f.pendingCR = true
		default:
			f.buf = append(f.buf, b)
		}
	}
	f.drain(onPayload, false)
}

func (f *sseFramer) Close(onPayload func(string)) {
	if f.pendingCR {
		f.pendingCR = false
		f.buf = append(f.buf, '\n')
	}
	f.drain(onPayload, true)
}

func (f *sseFramer) drain(onPayload func(string), final bool) {
	for {
		i := bytes.Index(f.buf, []byte("\n\n"))
		if i < 0 {
			break
		}
		end := i + 2
		for end < len(f.buf) && f.buf[end] == '\n' {
			end++
		}
		segment := string(f.buf[:i])
		f.buf = f.buf[end:]
		f.emit(segment, onPayload)
	}
	if final {
		if len(f.buf) > 0 {
			f.emit(string(f.buf), onPayload)
		}
		f.buf = nil
	}
}

func (f *sseFramer) emit(segment string, onPayload func(string)) {
	var dataLines []string
	for _, line := range strings.Split(segment, "\n") {
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		if strings.HasPrefix(line, "data:") {
			// Only the single space after the field name is part of the
			// framing; everything else in the value is payload.
			value := strings.TrimPrefix(line[len("data:"):], " ")
			dataLines = append(dataLines, value)
		}
	}
	if len(dataLines) == 0 {
		return
	}
	payload := strings.Join(dataLines, "\n")
	if payload == "" {
		return
	}
	onPayload(payload)
}
