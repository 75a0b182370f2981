package publish

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/vango-dev/stencil/internal/errors"
)

func TestCleanKey(t *testing.T) {
	tests := []struct {
		key     string
		want    string
		wantErr bool
	}{
		{key: "index.html", want: "index.html"},
		{key: "/a/b.html", want: "a/b.html"},
		{key: "a//b/./c.html", want: "a/b/c.html"},
		{key: `a\b.html`, want: "a/b.html"},
		{key: "", wantErr: true},
		{key: "/", wantErr: true},
		{key: "../etc/passwd", wantErr: true},
		{key: "a/../../b", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := CleanKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CleanKey(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("CleanKey(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(filepath.Join(dir, "out"))
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if err := s.Put(ctx, "pages/index.html", []byte("<p>1</p>"), ContentTypeHTML); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "pages/index.html", []byte("<p>2</p>"), ContentTypeHTML); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "out", "pages", "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "<p>2</p>" {
		t.Errorf("file content = %q, want %q", got, "<p>2</p>")
	}

	entries, err := os.ReadDir(filepath.Join(dir, "out", "pages"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the snapshot file, found %d entries", len(entries))
	}

	if err := s.Put(ctx, "../escape.html", nil, ContentTypeHTML); !errors.HasCode(err, errors.CodePublish) {
		t.Errorf("escaping key error = %v, want %s", err, errors.CodePublish)
	}
}

func TestFileStoreCancelled(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Put(ctx, "a.html", nil, ContentTypeHTML); err != context.Canceled {
		t.Errorf("Put with cancelled context = %v, want context.Canceled", err)
	}
}

type fakeS3 struct {
	inputs []*s3.PutObjectInput
	bodies []string
	err    error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, _ := io.ReadAll(in.Body)
	f.inputs = append(f.inputs, in)
	f.bodies = append(f.bodies, string(body))
	return &s3.PutObjectOutput{}, nil
}

func TestS3Store(t *testing.T) {
	fake := &fakeS3{}
	s := NewS3Store(fake, "bucket", "snapshots/")

	if err := s.Put(context.Background(), "/index.html", []byte("<p>hi</p>"), ContentTypeHTML); err != nil {
		t.Fatal(err)
	}
	if len(fake.inputs) != 1 {
		t.Fatalf("PutObject calls = %d, want 1", len(fake.inputs))
	}
	in := fake.inputs[0]
	if got := aws.ToString(in.Bucket); got != "bucket" {
		t.Errorf("Bucket = %q", got)
	}
	if got := aws.ToString(in.Key); got != "snapshots/index.html" {
		t.Errorf("Key = %q", got)
	}
	if got := aws.ToString(in.ContentType); got != ContentTypeHTML {
		t.Errorf("ContentType = %q", got)
	}
	if fake.bodies[0] != "<p>hi</p>" {
		t.Errorf("body = %q", fake.bodies[0])
	}
	if _, ok := in.Metadata["published-at"]; !ok {
		t.Error("missing published-at metadata")
	}

	fake.err = io.ErrUnexpectedEOF
	if err := s.Put(context.Background(), "x.html", nil, ContentTypeHTML); !errors.HasCode(err, errors.CodePublish) {
		t.Errorf("upload failure = %v, want %s", err, errors.CodePublish)
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(ctx, dir)
	if err != nil {
		t.Fatal(err)
	}
	if fs, ok := s.(*FileStore); !ok || fs.Dir() != dir {
		t.Errorf("Open(dir) = %#v, want FileStore at %s", s, dir)
	}

	s, err = Open(ctx, "file://"+filepath.ToSlash(dir))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*FileStore); !ok {
		t.Errorf("Open(file://) = %T, want *FileStore", s)
	}

	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	t.Setenv("AWS_REGION", "eu-west-1")
	s, err = Open(ctx, "s3://bucket/prefix/")
	if err != nil {
		t.Fatal(err)
	}
	if ss, ok := s.(*S3Store); !ok || ss.Bucket() != "bucket" || ss.prefix != "prefix/" {
		t.Errorf("Open(s3://) = %#v", s)
	}

	for _, bad := range []string{"", "s3:///nobucket", "ftp://host/x"} {
		if _, err := Open(ctx, bad); !errors.HasCode(err, errors.CodePublish) {
			t.Errorf("Open(%q) error = %v, want %s", bad, err, errors.CodePublish)
		}
	}
}

func TestOpenS3WithoutCredentials(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
	if _, err := Open(context.Background(), "s3://bucket"); !errors.HasCode(err, errors.CodePublish) {
		t.Errorf("Open without credentials = %v, want %s", err, errors.CodePublish)
	}
}
