package publish

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"jigsawreveal/internal/config"
	"jigsawreveal/internal/services"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	if in.Body != nil {
		f.body, _ = io.ReadAll(in.Body)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func writeArtifact(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "final.mp4")
	if err := os.WriteFile(path, []byte("movie"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPublishUploadsUnderPrefix(t *testing.T) {
	fake := &fakePutter{}
	p := NewWithClient(fake, "videos", "/jigsaw/", nil)
	artifact := writeArtifact(t)

	location, err := p.Publish(context.Background(), "run-42", artifact)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if location != "s3://videos/jigsaw/run-42/final.mp4" {
		t.Fatalf("location = %q", location)
	}
	if aws.ToString(fake.input.Bucket) != "videos" || aws.ToString(fake.input.Key) != "jigsaw/run-42/final.mp4" {
		t.Fatalf("unexpected input %+v", fake.input)
	}
	if aws.ToString(fake.input.ContentType) != "video/mp4" || aws.ToInt64(fake.input.ContentLength) != 5 || string(fake.body) != "movie" {
		t.Fatalf("unexpected upload metadata or body")
	}
}

func TestPublishWithoutPrefix(t *testing.T) {
	p := NewWithClient(&fakePutter{}, "videos", "", nil)
	if got := p.Key("r1", "/tmp/out.mkv"); got != "r1/out.mkv" {
		t.Fatalf("Key = %q", got)
	}
}

func TestPublishErrors(t *testing.T) {
	p := NewWithClient(&fakePutter{}, "videos", "", nil)
	if _, err := p.Publish(context.Background(), "r", "/nonexistent/out.mp4"); !errors.Is(err, services.ErrAssetNotFound) {
		t.Fatalf("expected ErrAssetNotFound, got %v", err)
	}

	apiErr := &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"}
	p = NewWithClient(&fakePutter{err: apiErr}, "videos", "", nil)
	_, err := p.Publish(context.Background(), "r", writeArtifact(t))
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
	var got smithy.APIError
	if !errors.As(err, &got) || got.ErrorCode() != "AccessDenied" {
		t.Fatalf("api error should stay reachable, got %v", err)
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), config.Publish{}, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestContentType(t *testing.T) {
	for name, want := range map[string]string{"a.MP4": "video/mp4", "a.webm": "video/webm", "a.bin": "application/octet-stream"} {
		if got := contentType(name); got != want {
			t.Errorf("contentType(%q) = %q, want %q", name, got, want)
		}
	}
}
