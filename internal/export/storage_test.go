package export

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/MRAT/internal/config"
)

// objectServer is an in-memory bucket that speaks enough of the S3 path-style
// API and the GCS JSON/XML APIs for Put and Get.
type objectServer struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    []*http.Request
}

func newObjectServer(t *testing.T) (*objectServer, *httptest.Server) {
	t.Helper()
	o := &objectServer{objects: make(map[string][]byte)}
	srv := httptest.NewServer(o)
	t.Cleanup(srv.Close)
	return o, srv
}

func (o *objectServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/upload/storage/v1/b/"):
		o.gcsUpload(w, r)
	case r.Method == http.MethodPut:
		data, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		o.objects[strings.TrimPrefix(r.URL.Path, "/")] = data
		o.puts = append(o.puts, r)
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodGet:
		key := strings.TrimPrefix(r.URL.Path, "/")
		if rest, ok := strings.CutPrefix(key, "storage/v1/b/"); ok {
			bucket, object, _ := strings.Cut(rest, "/o/")
			key = bucket + "/" + object
		}
		data, ok := o.objects[key]
		if !ok {
			o.notFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(data)
	default:
		http.Error(w, "unsupported", http.StatusMethodNotAllowed)
	}
}

func (o *objectServer) notFound(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/storage/") {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"code":404,"message":"No such object"}}`)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusNotFound)
	_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
}

// gcsUpload handles a multipart JSON API upload: a metadata part followed by
// the media part.
func (o *objectServer) gcsUpload(w http.ResponseWriter, r *http.Request) {
	bucket := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/upload/storage/v1/b/"), "/o")

	_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	mr := multipart.NewReader(r.Body, params["boundary"])

	var meta struct {
		Name string `json:"name"`
	}
	part, err := mr.NextPart()
	if err == nil {
		err = json.NewDecoder(part).Decode(&meta)
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if meta.Name == "" {
		meta.Name = r.URL.Query().Get("name")
	}
	part, err = mr.NextPart()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	data, err := io.ReadAll(part)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	o.objects[bucket+"/"+meta.Name] = data
	o.puts = append(o.puts, r)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"kind":   "storage#object",
		"bucket": bucket,
		"name":   meta.Name,
		"size":   strconv.Itoa(len(data)),
	})
}

func (o *objectServer) object(key string) ([]byte, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	data, ok := o.objects[key]
	return data, ok
}

func isolateAWSEnv(t *testing.T) {
	t.Helper()
	t.Setenv("AWS_CONFIG_FILE", "/nonexistent/aws/config")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", "/nonexistent/aws/credentials")
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
}

func TestS3StoragePutGet(t *testing.T) {
	isolateAWSEnv(t)
	fake, srv := newObjectServer(t)
	ctx := context.Background()

	s, err := NewS3Storage(ctx, S3Config{
		Bucket:    "mrat-reports",
		Region:    "us-east-1",
		Endpoint:  srv.URL,
		AccessKey: "test-access",
		SecretKey: "test-secret",
	})
	require.NoError(t, err)

	payload := []byte(`{"countries":[]}`)
	require.NoError(t, s.Put(ctx, "rankings/latest.json", payload))

	stored, ok := fake.object("mrat-reports/rankings/latest.json")
	require.True(t, ok, "object is addressed path-style")
	assert.Equal(t, payload, stored)
	require.Len(t, fake.puts, 1)
	assert.Equal(t, "application/json", fake.puts[0].Header.Get("Content-Type"))
	assert.Contains(t, fake.puts[0].Header.Get("Authorization"), "Credential=test-access/")

	got, err := s.Get(ctx, "rankings/latest.json")
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	_, err = s.Get(ctx, "rankings/missing.json")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBlobNotFound), "got %v", err)
}

func TestExporterOverS3(t *testing.T) {
	isolateAWSEnv(t)
	t.Setenv("AWS_ACCESS_KEY_ID", "test-access")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test-secret")
	fake, srv := newObjectServer(t)
	ctx := context.Background()

	blobs, err := NewBlobStore(ctx, config.ExportConfig{
		Backend:  "s3",
		Bucket:   "mrat-reports",
		Region:   "eu-west-1",
		Endpoint: srv.URL,
	})
	require.NoError(t, err)
	require.IsType(t, &S3Storage{}, blobs)

	e := NewExporter(blobs, "s3", "rankings", nil, discardLogger())
	latest, err := e.Latest(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	key, err := e.Export(ctx, testSnapshot())
	require.NoError(t, err)
	_, ok := fake.object("mrat-reports/" + key)
	assert.True(t, ok)

	latest, err = e.Latest(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Len(t, latest.Countries, 2)
}

func TestGCSStoragePutGet(t *testing.T) {
	fake, srv := newObjectServer(t)
	t.Setenv("STORAGE_EMULATOR_HOST", srv.URL)
	ctx := context.Background()

	s, err := NewGCSStorage(ctx, "mrat-reports")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	payload := []byte(`{"countries":[{"id":"ghana"}]}`)
	require.NoError(t, s.Put(ctx, "rankings/latest.json", payload))

	stored, ok := fake.object("mrat-reports/rankings/latest.json")
	require.True(t, ok)
	assert.Equal(t, payload, stored)

	got, err := s.Get(ctx, "rankings/latest.json")
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	_, err = s.Get(ctx, "rankings/missing.json")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBlobNotFound), "got %v", err)
}

func TestLocalStorageMissingKey(t *testing.T) {
	_, err := NewLocalStorage(t.TempDir()).Get(context.Background(), "reports/latest.json")
	assert.True(t, errors.Is(err, ErrBlobNotFound))
}
