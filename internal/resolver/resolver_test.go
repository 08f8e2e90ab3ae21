package resolver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseBlobURL(t *testing.T) {
	ref, ok := ParseBlobURL("https://github.com/sakif/codelens/blob/main/cmd/server/main.go")
	if !ok {
		t.Fatal("ParseBlobURL() ok = false, want true")
	}

	if ref.Owner != "sakif" {
		t.Errorf("Owner = %q, want %q", ref.Owner, "sakif")
	}
	if ref.Repo != "codelens" {
		t.Errorf("Repo = %q, want %q", ref.Repo, "codelens")
	}
	if ref.Branch != "main" {
		t.Errorf("Branch = %q, want %q", ref.Branch, "main")
	}
	if ref.Path != "cmd/server/main.go" {
		t.Errorf("Path = %q, want %q", ref.Path, "cmd/server/main.go")
	}
	if ref.FileName != "main.go" {
		t.Errorf("FileName = %q, want %q", ref.FileName, "main.go")
	}
}

func TestParseBlobURL_SingleSegmentPath(t *testing.T) {
	ref, ok := ParseBlobURL("https://github.com/octocat/hello/blob/master/README.md")
	if !ok {
		t.Fatal("ParseBlobURL() ok = false, want true")
	}
	if ref.Path != "README.md" || ref.FileName != "README.md" {
		t.Errorf("Path = %q, FileName = %q, want both README.md", ref.Path, ref.FileName)
	}
}

func TestParseBlobURL_NonMatching(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"empty string", ""},
		{"not a URL", "hello world"},
		{"missing /blob/ segment", "https://github.com/sakif/codelens/main/app.go"},
		{"tree URL instead of blob", "https://github.com/sakif/codelens/tree/main/cmd"},
		{"wrong host", "https://gitlab.com/sakif/codelens/blob/main/app.go"},
		{"raw host directly", "https://raw.githubusercontent.com/sakif/codelens/main/app.go"},
		{"http scheme", "http://github.com/sakif/codelens/blob/main/app.go"},
		{"blob with no path", "https://github.com/sakif/codelens/blob/main"},
		{"repo page only", "https://github.com/sakif/codelens"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if ref, ok := ParseBlobURL(tt.url); ok || ref != nil {
				t.Errorf("ParseBlobURL(%q) = (%v, %v), want (nil, false)", tt.url, ref, ok)
			}
		})
	}
}

// The round-trip property: parsing a blob URL and rebuilding the raw URL must
// produce exactly the raw.githubusercontent.com form, byte for byte.
func TestRawURL_RoundTrip(t *testing.T) {
	tests := []struct {
		blob string
		raw  string
	}{
		{
			blob: "https://github.com/sakif/codelens/blob/main/cmd/server/main.go",
			raw:  "https://raw.githubusercontent.com/sakif/codelens/main/cmd/server/main.go",
		},
		{
			blob: "https://github.com/octocat/hello/blob/master/README.md",
			raw:  "https://raw.githubusercontent.com/octocat/hello/master/README.md",
		},
		{
			blob: "https://github.com/a/b/blob/feature-x/deep/ly/nested/file.kt",
			raw:  "https://raw.githubusercontent.com/a/b/feature-x/deep/ly/nested/file.kt",
		},
	}

	for _, tt := range tests {
		ref, ok := ParseBlobURL(tt.blob)
		if !ok {
			t.Fatalf("ParseBlobURL(%q) failed to match", tt.blob)
		}
		if got := ref.RawURL(); got != tt.raw {
			t.Errorf("RawURL() = %q, want %q", got, tt.raw)
		}
	}
}

func TestFetch(t *testing.T) {
	const content = "fun main() {\n    println(\"hello\")\n}\n"

	// httptest.NewServer spins up a real HTTP server on a random local port.
	// We assert the request path matches the raw-URL convention, then serve
	// canned content.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sakif/codelens/main/app.kt" {
			t.Errorf("request path = %q, want %q", r.URL.Path, "/sakif/codelens/main/app.kt")
		}
		w.Write([]byte(content))
	}))
	defer srv.Close()

	f := NewFetcherWithBaseURL(srv.Client(), srv.URL)
	ref, _ := ParseBlobURL("https://github.com/sakif/codelens/blob/main/app.kt")

	got, err := f.Fetch(context.Background(), ref)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got != content {
		t.Errorf("Fetch() = %q, want %q", got, content)
	}
}

func TestFetch_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewFetcherWithBaseURL(srv.Client(), srv.URL)
	ref, _ := ParseBlobURL("https://github.com/sakif/codelens/blob/main/missing.go")

	if _, err := f.Fetch(context.Background(), ref); err == nil {
		t.Fatal("Fetch() error = nil, want non-nil for 404")
	}
}

func TestFetch_InvalidUTF8(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte{0xff, 0xfe, 0x00, 0x01}) // not valid UTF-8
	}))
	defer srv.Close()

	f := NewFetcherWithBaseURL(srv.Client(), srv.URL)
	ref, _ := ParseBlobURL("https://github.com/sakif/codelens/blob/main/blob.bin")

	_, err := f.Fetch(context.Background(), ref)
	if err == nil {
		t.Fatal("Fetch() error = nil, want non-nil for invalid UTF-8 body")
	}
	if !strings.Contains(err.Error(), "UTF-8") {
		t.Errorf("error %q should mention UTF-8", err)
	}
}

func TestFetch_NetworkError(t *testing.T) {
	// Point the fetcher at a server that's already closed, so the GET fails at
	// the transport level, not with an HTTP status.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	f := NewFetcherWithBaseURL(http.DefaultClient, srv.URL)
	ref, _ := ParseBlobURL("https://github.com/sakif/codelens/blob/main/app.go")

	if _, err := f.Fetch(context.Background(), ref); err == nil {
		t.Fatal("Fetch() error = nil, want non-nil for connection failure")
	}
}
