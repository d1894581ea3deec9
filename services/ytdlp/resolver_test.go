package ytdlp

import (
	"context"
	defaultErrors "errors"
	"strings"
	"testing"
)

type runCall struct {
	name string
	args []string
}

type mockRunner struct {
	stdout []byte
	stderr []byte
	err    error
	calls  []runCall
}

func (m *mockRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	m.calls = append(m.calls, runCall{name: name, args: args})
	return m.stdout, m.stderr, m.err
}

func newTestResolver(r Runner, cookiesFile string) *Resolver {
	res := &Resolver{
		path:        "yt-dlp",
		cookiesFile: cookiesFile,
	}
	return res.WithRunner(r)
}

func TestResolver_Resolve_Success(t *testing.T) {
	runner := &mockRunner{
		stdout: []byte(`{
			"title": "Big Buck Bunny",
			"url": "https://cdn.example.com/video.mp4?expire=123",
			"uploader": "Blender",
			"thumbnail": "https://i.ytimg.com/vi/aqz-KE-bpKQ/maxresdefault.jpg"
		}`),
	}
	res := newTestResolver(runner, "")

	info, err := res.Resolve(context.Background(), "aqz-KE-bpKQ")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(runner.calls) != 1 {
		t.Fatalf("Expected 1 invocation, got %d", len(runner.calls))
	}
	call := runner.calls[0]
	if call.name != "yt-dlp" {
		t.Errorf("Expected yt-dlp binary, got %s", call.name)
	}
	wantArgs := []string{"-J", "-f", "best", "--no-playlist", "https://www.youtube.com/watch?v=aqz-KE-bpKQ"}
	if strings.Join(call.args, " ") != strings.Join(wantArgs, " ") {
		t.Errorf("Expected args %v, got %v", wantArgs, call.args)
	}
	if info.Title != "Big Buck Bunny" {
		t.Errorf("Expected title 'Big Buck Bunny', got %s", info.Title)
	}
	if info.URL != "https://cdn.example.com/video.mp4?expire=123" {
		t.Errorf("Expected direct url, got %s", info.URL)
	}
	if info.Uploader != "Blender" {
		t.Errorf("Expected uploader 'Blender', got %s", info.Uploader)
	}
	if info.Thumbnail != "https://i.ytimg.com/vi/aqz-KE-bpKQ/maxresdefault.jpg" {
		t.Errorf("Expected thumbnail, got %s", info.Thumbnail)
	}
}

func TestResolver_Resolve_CookiesFile(t *testing.T) {
	runner := &mockRunner{stdout: []byte(`{}`)}
	res := newTestResolver(runner, "/etc/tubecast/cookies.txt")

	_, err := res.Resolve(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	args := strings.Join(runner.calls[0].args, " ")
	if !strings.Contains(args, "--cookies /etc/tubecast/cookies.txt") {
		t.Errorf("Expected --cookies flag in args, got %v", runner.calls[0].args)
	}
	if !strings.HasSuffix(args, "https://www.youtube.com/watch?v=abc123") {
		t.Errorf("Expected watch url last, got %v", runner.calls[0].args)
	}
}

func TestResolver_Resolve_EmptyVideoID(t *testing.T) {
	runner := &mockRunner{}
	res := newTestResolver(runner, "")

	for _, id := range []string{"", "   "} {
		_, err := res.Resolve(context.Background(), id)
		if !defaultErrors.Is(err, ErrNoVideoID) {
			t.Errorf("Expected ErrNoVideoID for %q, got %v", id, err)
		}
	}
	if len(runner.calls) != 0 {
		t.Errorf("Expected no invocations, got %d", len(runner.calls))
	}
}

func TestResolver_Resolve_ToolError(t *testing.T) {
	runner := &mockRunner{
		stderr: []byte("ERROR: [youtube] abc123: Video unavailable\n"),
		err:    defaultErrors.New("exit status 1"),
	}
	res := newTestResolver(runner, "")

	_, err := res.Resolve(context.Background(), "abc123")
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !strings.Contains(err.Error(), "Video unavailable") {
		t.Errorf("Expected stderr passthrough, got %q", err.Error())
	}
}

func TestResolver_Resolve_ToolErrorWithoutStderr(t *testing.T) {
	runner := &mockRunner{
		err: defaultErrors.New("executable file not found in $PATH"),
	}
	res := newTestResolver(runner, "")

	_, err := res.Resolve(context.Background(), "abc123")
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !strings.Contains(err.Error(), "executable file not found") {
		t.Errorf("Expected exec error passthrough, got %q", err.Error())
	}
}

func TestResolver_Resolve_MissingFields(t *testing.T) {
	runner := &mockRunner{stdout: []byte(`{"title": "Only Title"}`)}
	res := newTestResolver(runner, "")

	info, err := res.Resolve(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if info.Title != "Only Title" {
		t.Errorf("Expected title 'Only Title', got %s", info.Title)
	}
	if info.URL != "" || info.Uploader != "" || info.Thumbnail != "" {
		t.Errorf("Expected absent fields to stay empty, got %+v", info)
	}
}

func TestResolver_Resolve_InvalidJSON(t *testing.T) {
	runner := &mockRunner{stdout: []byte("not json")}
	res := newTestResolver(runner, "")

	_, err := res.Resolve(context.Background(), "abc123")
	if err == nil {
		t.Error("Expected error for invalid output, got nil")
	}
}
