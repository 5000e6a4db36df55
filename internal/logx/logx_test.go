package logx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"pkt.systems/pslog"

	"pkt.systems/tabshell/schema"
)

func newCaptureLogger(capture *logCapture) pslog.Logger {
	return pslog.NewWithOptions(capture, pslog.Options{
		Mode:          pslog.ModeStructured,
		NoColor:       true,
		MinLevel:      pslog.InfoLevel,
		VerboseFields: true,
	})
}

func TestWithTierAddsField(t *testing.T) {
	capture := &logCapture{}
	log := WithTier(newCaptureLogger(capture), schema.TierEmbedded)
	log.Info("hello")

	entry := capture.firstEntry(t)
	if entry["tier"] != "embedded" {
		t.Fatalf("expected tier field, got %+v", entry)
	}
}

func TestWithURLSkipsEmpty(t *testing.T) {
	capture := &logCapture{}
	log := WithURL(newCaptureLogger(capture), "")
	log.Info("hello")

	entry := capture.firstEntry(t)
	if _, ok := entry["url"]; ok {
		t.Fatalf("did not expect url for empty value")
	}
}

func TestWithGroupAddsFields(t *testing.T) {
	capture := &logCapture{}
	log := WithTab(WithGroup(newCaptureLogger(capture), "g1"), 3)
	log.Info("hello")

	entry := capture.firstEntry(t)
	if entry["group"] != "g1" {
		t.Fatalf("expected group field, got %+v", entry)
	}
	if fmt.Sprint(entry["tab"]) != "3" {
		t.Fatalf("expected tab field, got %+v", entry)
	}
}

func TestWithTabSkipsNoTab(t *testing.T) {
	capture := &logCapture{}
	WithTab(newCaptureLogger(capture), schema.NoTab).Info("hello")

	entry := capture.firstEntry(t)
	if _, ok := entry["tab"]; ok {
		t.Fatalf("did not expect tab field for NoTab")
	}
}

func TestFromContextAddsGroupToPlainContext(t *testing.T) {
	capture := &logCapture{}
	ctx := pslog.ContextWithLogger(context.Background(), newCaptureLogger(capture))
	FromContext(ctx, "g1").Info("hello")

	entry := capture.firstEntry(t)
	if entry["group"] != "g1" {
		t.Fatalf("expected group field, got %+v", entry)
	}
}

func TestFromContextSkipsMarkedGroup(t *testing.T) {
	capture := &logCapture{}
	logger := WithGroup(newCaptureLogger(capture), "g1")
	ctx := ContextWithGroupLogger(context.Background(), logger, "g1")
	FromContext(ctx, "g1").Info("hello")

	line := capture.buf.String()
	if n := strings.Count(line, `"group"`); n != 1 {
		t.Fatalf("expected one group field, got %d in %s", n, line)
	}
}

func TestFromContextAddsOtherGroup(t *testing.T) {
	capture := &logCapture{}
	ctx := ContextWithGroupLogger(context.Background(), newCaptureLogger(capture), "g1")
	FromContext(ctx, "g2").Info("hello")

	entry := capture.firstEntry(t)
	if entry["group"] != "g2" {
		t.Fatalf("expected group g2, got %+v", entry)
	}
}

type logCapture struct {
	buf bytes.Buffer
}

func (c *logCapture) Write(p []byte) (int, error) {
	return c.buf.Write(p)
}

func (c *logCapture) firstEntry(t *testing.T) map[string]any {
	t.Helper()
	data := c.buf.Bytes()
	idx := bytes.IndexByte(data, '\n')
	if idx == -1 {
		idx = len(data)
	}
	line := bytes.TrimSpace(data[:idx])
	entry := map[string]any{}
	if err := json.Unmarshal(line, &entry); err != nil {
		t.Fatalf("parse log entry: %v", err)
	}
	return entry
}
