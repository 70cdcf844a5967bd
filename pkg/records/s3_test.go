package records

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// fakeS3 serves one object body, recording the requested bucket and key.
type fakeS3 struct {
	body   string
	err    error
	bucket string
	key    string
}

func (f *fakeS3) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.bucket = *params.Bucket
	f.key = *params.Key
	if f.err != nil {
		return nil, f.err
	}
	return &s3.GetObjectOutput{
		Body: io.NopCloser(strings.NewReader(f.body)),
	}, nil
}

func TestFromS3(t *testing.T) {
	client := &fakeS3{body: sampleCSV}

	c, err := FromS3(context.Background(), client, "datasets", "breweries.csv", CSVOptions{})
	if err != nil {
		t.Fatalf("FromS3 failed: %v", err)
	}
	if c.Len() != 3 {
		t.Errorf("Len = %d, want 3", c.Len())
	}
	if client.bucket != "datasets" || client.key != "breweries.csv" {
		t.Errorf("requested s3://%s/%s", client.bucket, client.key)
	}
}

func TestFromS3FetchError(t *testing.T) {
	client := &fakeS3{err: errors.New("access denied")}

	_, err := FromS3(context.Background(), client, "datasets", "breweries.csv", CSVOptions{})
	if err == nil {
		t.Fatal("expected fetch error")
	}
	if !strings.Contains(err.Error(), "s3://datasets/breweries.csv") {
		t.Errorf("error does not name the object: %v", err)
	}
}

func TestFromS3BadCSV(t *testing.T) {
	client := &fakeS3{body: "not,a,valid\nheader"}

	if _, err := FromS3(context.Background(), client, "b", "k", CSVOptions{}); err == nil {
		t.Error("expected decode error")
	}
}
