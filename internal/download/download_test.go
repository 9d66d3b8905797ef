package download

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	vserrors "github.com/five82/vidsim/internal/errors"
)

func TestExtractLinks(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		entities []Entity
		want     []string
	}{
		{
			name: "single link",
			text: "look https://www.tiktok.com/@user/video/123 nice",
			want: []string{"https://www.tiktok.com/@user/video/123"},
		},
		{
			name: "multiple links",
			text: "https://tiktok.com/@a\nhttp://www.tiktok.com/@b/video/9",
			want: []string{"https://tiktok.com/@a", "http://www.tiktok.com/@b/video/9"},
		},
		{
			name:     "entity fallback with utf16 offsets",
			text:     "🎬 https://vm.tiktok.com/ZM123/",
			entities: []Entity{{Type: "url", Offset: 3, Length: 28}},
			want:     []string{"https://vm.tiktok.com/ZM123/"},
		},
		{
			name:     "entity for another host",
			text:     "https://example.com/x",
			entities: []Entity{{Type: "url", Offset: 0, Length: 21}},
		},
		{
			name:     "entity out of range",
			text:     "short",
			entities: []Entity{{Type: "url", Offset: 2, Length: 40}},
		},
		{
			name: "no links",
			text: "hello",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractLinks(tt.text, tt.entities)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractLinks() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := map[string]Kind{
		"https://www.tiktok.com/@user/video/123": KindVideo,
		"https://www.tiktok.com/@user":           KindProfile,
		"https://vm.tiktok.com/ZM123/":           KindUnsupported,
	}
	for link, want := range tests {
		if got := Classify(link); got != want {
			t.Errorf("Classify(%q) = %v, want %v", link, got, want)
		}
	}
}

func TestClampAndParseCount(t *testing.T) {
	for in, want := range map[int]int{-3: 1, 0: 1, 1: 1, 7: 7, 10: 10, 11: 10, 500: 10} {
		if got := ClampCount(in); got != want {
			t.Errorf("ClampCount(%d) = %d, want %d", in, got, want)
		}
	}

	tests := []struct {
		text string
		want int
		ok   bool
	}{
		{"5", 5, true},
		{" 12 ", 10, true},
		{"0", 1, true},
		{"99999999999999999999999", 10, true},
		{"-2", 0, false},
		{"five", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseCount(tt.text)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseCount(%q) = %d, %v; want %d, %v", tt.text, got, ok, tt.want, tt.ok)
		}
	}
}

func TestBuildArgs(t *testing.T) {
	video := BuildArgs("https://www.tiktok.com/@u/video/1", KindVideo, 3, "/dl", DefaultFormat)
	want := []string{"-f", "bv*+ba/best", "-o", "/dl/%(id)s.%(ext)s", "--merge-output-format", "mp4",
		"--no-warnings", "--quiet", "https://www.tiktok.com/@u/video/1"}
	if !reflect.DeepEqual(video, want) {
		t.Errorf("video args = %v", video)
	}

	profile := strings.Join(BuildArgs("https://www.tiktok.com/@u", KindProfile, 4, "/dl", DefaultFormat), " ")
	if !strings.Contains(profile, "--playlist-end 4") || !strings.HasSuffix(profile, "https://www.tiktok.com/@u") {
		t.Errorf("profile args = %s", profile)
	}
}

// fakeYTDLP writes files into the directory of the -o template.
type fakeYTDLP struct {
	files []string
	err   error
	block bool
	args  []string
}

func (f *fakeYTDLP) Run(ctx context.Context, args []string, stderr io.Writer) error {
	f.args = args
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if f.err != nil {
		_, _ = io.WriteString(stderr, "ERROR: Unsupported URL\n")
		return f.err
	}
	var dir string
	for i, a := range args {
		if a == "-o" {
			dir = filepath.Dir(args[i+1])
		}
	}
	for _, name := range f.files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("video"), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func TestFetchVideo(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "old.mp4"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	runner := &fakeYTDLP{files: []string{"222.mp4", "111.mp4"}}
	d := New(runner, Options{Dir: dir}, nil)

	res, err := d.Fetch(context.Background(), "https://www.tiktok.com/@u/video/1", 1)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	want := []string{filepath.Join(dir, "111.mp4"), filepath.Join(dir, "222.mp4")}
	if !reflect.DeepEqual(res.Files, want) {
		t.Errorf("Files = %v, want %v", res.Files, want)
	}
	if res.Kind != KindVideo {
		t.Errorf("Kind = %v", res.Kind)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 3 {
		t.Errorf("staging directory left behind: %v", entries)
	}
}

func TestFetchProfileClampsLimit(t *testing.T) {
	runner := &fakeYTDLP{files: []string{"1.mp4"}}
	d := New(runner, Options{Dir: t.TempDir(), MaxProfileVideos: 5}, nil)

	if _, err := d.Fetch(context.Background(), "https://www.tiktok.com/@u", 50); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !strings.Contains(strings.Join(runner.args, " "), "--playlist-end 5") {
		t.Errorf("args = %v", runner.args)
	}
}

func TestFetchErrors(t *testing.T) {
	ctx := context.Background()

	d := New(&fakeYTDLP{}, Options{Dir: t.TempDir()}, nil)
	if _, err := d.Fetch(ctx, "https://www.tiktok.com/@u/video/1", 1); !errors.Is(err, ErrNothingDownloaded) {
		t.Errorf("empty download error = %v", err)
	}
	if _, err := d.Fetch(ctx, "https://vm.tiktok.com/x", 1); !errors.Is(err, ErrUnsupportedLink) {
		t.Errorf("unsupported link error = %v", err)
	}

	failing := New(&fakeYTDLP{err: errors.New("exit status 1")}, Options{Dir: t.TempDir()}, nil)
	if _, err := failing.Fetch(ctx, "https://www.tiktok.com/@u/video/1", 1); !vserrors.IsKind(err, vserrors.KindDownload) {
		t.Errorf("runner failure error = %v", err)
	}

	slow := New(&fakeYTDLP{block: true}, Options{Dir: t.TempDir(), Timeout: 30 * time.Millisecond}, nil)
	_, err := slow.Fetch(ctx, "https://www.tiktok.com/@u/video/1", 1)
	if !vserrors.IsKind(err, vserrors.KindDownload) || !strings.Contains(err.Error(), "timed out") {
		t.Errorf("timeout error = %v", err)
	}
}
