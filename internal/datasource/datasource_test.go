package datasource

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dbetl/internal/datasource/file"
	"dbetl/internal/datasource/httpds"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		location string
		want     string
	}{
		{".", "*file.Stdin"},
		{"https://example.com/a.csv", "*httpds.URL"},
		{"HTTP://example.com/a.csv", "*httpds.URL"},
		{"data/a.csv", "*file.Local"},
	}
	for _, tt := range tests {
		src := Resolve(tt.location, nil, strings.NewReader(""))
		var got string
		switch src.(type) {
		case *file.Stdin:
			got = "*file.Stdin"
		case *httpds.URL:
			got = "*httpds.URL"
		case *file.Local:
			got = "*file.Local"
		}
		if got != tt.want {
			t.Fatalf("Resolve(%q) = %T, want %s", tt.location, src, tt.want)
		}
	}
}

func TestBaseNameAndExt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		location, name, ext string
	}{
		{"data/Orders.csv", "Orders", ".csv"},
		{"/tmp/book.XLSX", "book", ".xlsx"},
		{"https://h/files/sales.xlsx?token=abc", "sales", ".xlsx"},
		{"https://h/?report=sales", "report_sales", ""},
		{".", "stdin", ""},
		{"noext", "noext", ""},
	}
	for _, tt := range tests {
		if got := BaseName(tt.location); got != tt.name {
			t.Fatalf("BaseName(%q) = %q, want %q", tt.location, got, tt.name)
		}
		if got := Ext(tt.location); got != tt.ext {
			t.Fatalf("Ext(%q) = %q, want %q", tt.location, got, tt.ext)
		}
	}
}

func TestOpenLocalAndSize(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "a.csv")
	if err := os.WriteFile(path, []byte("x\n1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	rc, err := Resolve(path, nil, nil).Open(context.Background())
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	defer rc.Close()
	if got := Size(rc); got != 4 {
		t.Fatalf("Size() = %d, want 4", got)
	}

	stdin, err := Resolve(".", nil, strings.NewReader("abc")).Open(context.Background())
	if err != nil {
		t.Fatalf("Open(stdin) error: %v", err)
	}
	if got := Size(stdin); got != -1 {
		t.Fatalf("Size(stdin) = %d, want -1", got)
	}
	if b, _ := io.ReadAll(stdin); string(b) != "abc" {
		t.Fatalf("stdin = %q", b)
	}

	_, err = Resolve(filepath.Join(dir, "missing.csv"), nil, nil).Open(context.Background())
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("Open(missing) error = %v, want fs.ErrNotExist", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Resolve(path, nil, nil).Open(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Open(cancelled) error = %v", err)
	}
}
