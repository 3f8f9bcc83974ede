package sse

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/daleelapp/daleel-backend/internal/logger"
	"github.com/daleelapp/daleel-backend/internal/services"
)

func newTestRelay(t *testing.T) (*Relay, *httptest.ResponseRecorder) {
	t.Helper()
	rec := httptest.NewRecorder()
	relay, err := NewRelay(rec, logger.NewNop())
	if err != nil {
		t.Fatalf("NewRelay: %v", err)
	}
	return relay, rec
}

func TestRelayHeadersSetOnFirstFrame(t *testing.T) {
	relay, rec := newTestRelay(t)
	if got := rec.Header().Get("Content-Type"); got != "" {
		t.Fatalf("Content-Type set before first frame: %q", got)
	}
	relay.Token("أهلاً")
	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("Content-Type = %q", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-cache" {
		t.Fatalf("Cache-Control = %q", got)
	}
}

func TestRelayFrames(t *testing.T) {
	relay, rec := newTestRelay(t)

	if relay.Started() {
		t.Fatal("relay started before first frame")
	}
	relay.Token("أهلاً")
	if !relay.Started() {
		t.Fatal("relay not started after first frame")
	}
	relay.Token("بك")
	relay.Done(services.DonePayload{Done: true, ChatID: "abc", Message: "أهلاً بك", Summary: "ترحيب"})

	body := rec.Body.String()
	frames := strings.Split(strings.TrimSuffix(body, "\n\n"), "\n\n")
	if len(frames) != 3 {
		t.Fatalf("got %d frames: %q", len(frames), body)
	}
	if frames[0] != `data: {"token":"أهلاً"}` {
		t.Fatalf("frame 0 = %q", frames[0])
	}
	if frames[1] != `data: {"token":"بك"}` {
		t.Fatalf("frame 1 = %q", frames[1])
	}
	if !strings.HasPrefix(frames[2], `data: {"done":true`) {
		t.Fatalf("frame 2 = %q", frames[2])
	}
	if !strings.Contains(frames[2], `"chatId":"abc"`) {
		t.Fatalf("done frame missing chat id: %q", frames[2])
	}
}

func TestRelayFailFrame(t *testing.T) {
	relay, rec := newTestRelay(t)
	relay.Fail("upstream exploded")
	if got := rec.Body.String(); got != "data: {\"error\":\"upstream exploded\"}\n\n" {
		t.Fatalf("body = %q", got)
	}
}

func TestRelayIgnoresWritesAfterFinalize(t *testing.T) {
	relay, rec := newTestRelay(t)
	relay.Done(services.DonePayload{Done: true, Message: "m"})
	before := rec.Body.Len()

	relay.Token("stray")
	relay.Fail("late failure")
	relay.Done(services.DonePayload{Done: true, Message: "again"})

	if rec.Body.Len() != before {
		t.Fatalf("frames written after finalize: %q", rec.Body.String())
	}
}

func TestRelayDoneOmitsEmptyOptionalFields(t *testing.T) {
	relay, rec := newTestRelay(t)
	relay.Done(services.DonePayload{Done: true, Message: "m"})
	body := rec.Body.String()
	if strings.Contains(body, "chatId") || strings.Contains(body, "summary") {
		t.Fatalf("optional fields present when empty: %q", body)
	}
}
