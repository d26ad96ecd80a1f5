package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/maternal-health/internal/config"
)

func TestValidName(t *testing.T) {
	assert.True(t, ValidName("prediction_12.json"))
	assert.False(t, ValidName("prediction_0.json"))
	assert.False(t, ValidName("../etc/passwd"))
	assert.False(t, ValidName("prediction_1.json.bak"))
	assert.Equal(t, "prediction_7.json", FileName(7))
}

func TestFileStoreSaveAndOpen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "predictions")
	st, err := NewFileStore(dir)
	require.NoError(t, err)
	assert.DirExists(t, dir)

	path, err := st.Save(context.Background(), 9, map[string]any{"risk": []float64{0.4}})
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(path))
	assert.Equal(t, filepath.Join(st.Dir(), "prediction_9.json"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"risk\": [\n    0.4\n  ]\n}", string(raw))

	rc, err := st.Open(context.Background(), "prediction_9.json")
	require.NoError(t, err)
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	assert.Equal(t, raw, got)
}

func TestFileStoreErrors(t *testing.T) {
	st, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = st.Save(context.Background(), 0, map[string]any{})
	assert.Error(t, err)

	_, err = st.Open(context.Background(), "prediction_3.json")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = st.Open(context.Background(), "../secret.json")
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestNewSelectsBackend(t *testing.T) {
	st, err := New(context.Background(), config.ArtifactConfig{Backend: "file", Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, st)

	_, err = New(context.Background(), config.ArtifactConfig{Backend: "s3"})
	assert.Error(t, err)

	_, err = New(context.Background(), config.ArtifactConfig{Backend: "ftp"})
	assert.Error(t, err)
}

type fakeS3 struct {
	objects map[string][]byte
	types   map[string]string
	failPut error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.failPut != nil {
		return nil, f.failPut
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.objects[key] = data
	f.types[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("The specified key does not exist.")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestS3StoreSaveAndOpen(t *testing.T) {
	fake := newFakeS3()
	st := newS3Store(fake, "mh-bucket", "predictions/")

	loc, err := st.Save(context.Background(), 4, map[string]any{"risk": []float64{0.9}})
	require.NoError(t, err)
	assert.Equal(t, "s3://mh-bucket/predictions/prediction_4.json", loc)
	assert.Equal(t, "application/json", fake.types["mh-bucket/predictions/prediction_4.json"])

	rc, err := st.Open(context.Background(), "prediction_4.json")
	require.NoError(t, err)
	defer rc.Close()
	var doc map[string][]float64
	require.NoError(t, json.NewDecoder(rc).Decode(&doc))
	assert.Equal(t, []float64{0.9}, doc["risk"])
}

func TestS3StoreErrors(t *testing.T) {
	fake := newFakeS3()
	st := newS3Store(fake, "b", "")

	_, err := st.Open(context.Background(), "prediction_1.json")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = st.Open(context.Background(), "other.txt")
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = st.Save(context.Background(), 0, nil)
	assert.Error(t, err)

	fake.failPut = errors.New("access denied")
	_, err = st.Save(context.Background(), 2, map[string]any{})
	assert.ErrorContains(t, err, "access denied")
}
