package tmpfiles

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if header.Filename != "bill.pdf" || string(data) != "%PDF-1.4" {
			t.Errorf("unexpected upload %q %q", header.Filename, data)
		}
		if got := header.Header.Get("Content-Type"); got != "application/pdf" {
			t.Errorf("part Content-Type = %q, want application/pdf", got)
		}
		_, _ = io.WriteString(w, `{"status":"success","data":{"url":"https://tmpfiles.org/12345/bill.pdf"}}`)
	}))
	defer srv.Close()

	c, err := New(WithUploadURL(srv.URL + "/api/v1/upload"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	got, err := c.Upload(context.Background(), "bill.pdf", "application/pdf", strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if got != "https://tmpfiles.org/dl/12345/bill.pdf" {
		t.Fatalf("Upload() = %q", got)
	}
}

func TestUploadFailures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{}`},
		{"missing url", http.StatusOK, `{"status":"error"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			c, err := New(WithUploadURL(srv.URL))
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if _, err := c.Upload(context.Background(), "a.png", "image/png", strings.NewReader("x")); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestUploadMissingURLSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":{}}`)
	}))
	defer srv.Close()

	c, _ := New(WithUploadURL(srv.URL))
	_, err := c.Upload(context.Background(), "a.png", "image/png", strings.NewReader("x"))
	if !stderrors.Is(err, ErrMissingURL) {
		t.Fatalf("expected ErrMissingURL, got %v", err)
	}
}

func TestDownloadURL(t *testing.T) {
	c, _ := New(WithPrefixes("https://files.example/", "https://files.example/dl/"))
	cases := map[string]string{
		"https://files.example/1/a.pdf":                "https://files.example/dl/1/a.pdf",
		"https://other.example/1/a.pdf":                "https://other.example/1/a.pdf",
		"https://files.example/https://files.example/": "https://files.example/dl/https://files.example/",
	}
	for in, want := range cases {
		if got := c.DownloadURL(in); got != want {
			t.Fatalf("DownloadURL(%q) = %q, want %q", in, got, want)
		}
	}
}
