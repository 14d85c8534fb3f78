package store

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/klass-lk/postboard/internal/model"
)

type MockS3Client struct {
	mock.Mock
}

func (m *MockS3Client) HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.HeadObjectOutput), args.Error(1)
}

func (m *MockS3Client) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.GetObjectOutput), args.Error(1)
}

func (m *MockS3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.PutObjectOutput), args.Error(1)
}

func bodyOf(t *testing.T, input *s3.PutObjectInput) string {
	data, err := io.ReadAll(input.Body)
	require.NoError(t, err)
	return string(data)
}

func TestS3Store_InitializeWhenMissing(t *testing.T) {
	client := new(MockS3Client)
	s := NewS3Store(client, "bucket", "posts.json", 0)

	client.On("HeadObject", mock.Anything, mock.MatchedBy(func(in *s3.HeadObjectInput) bool {
		return aws.ToString(in.Bucket) == "bucket" && aws.ToString(in.Key) == "posts.json"
	})).Return(nil, &types.NotFound{})

	var uploaded string
	client.On("PutObject", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { uploaded = bodyOf(t, args.Get(1).(*s3.PutObjectInput)) }).
		Return(&s3.PutObjectOutput{}, nil)

	require.NoError(t, s.Initialize(context.Background()))

	expected, err := encode(model.SeedPosts())
	require.NoError(t, err)
	assert.Equal(t, string(expected), uploaded)
	client.AssertExpectations(t)
}

func TestS3Store_InitializeWhenPresent(t *testing.T) {
	client := new(MockS3Client)
	s := NewS3Store(client, "bucket", "", 0)

	client.On("HeadObject", mock.Anything, mock.MatchedBy(func(in *s3.HeadObjectInput) bool {
		return aws.ToString(in.Key) == DefaultFilePath
	})).Return(&s3.HeadObjectOutput{}, nil)

	require.NoError(t, s.Initialize(context.Background()))
	client.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything)
}

func TestS3Store_InitializeHeadFailure(t *testing.T) {
	client := new(MockS3Client)
	s := NewS3Store(client, "bucket", "posts.json", 0)

	client.On("HeadObject", mock.Anything, mock.Anything).Return(nil, errors.New("access denied"))

	assert.Error(t, s.Initialize(context.Background()))
	client.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything)
}

func TestS3Store_Load(t *testing.T) {
	client := new(MockS3Client)
	s := NewS3Store(client, "bucket", "posts.json", 0)

	client.On("GetObject", mock.Anything, mock.Anything).Return(&s3.GetObjectOutput{
		Body: io.NopCloser(strings.NewReader(`[{"id":1,"author":"A","title":"T","content":"C"}]`)),
	}, nil).Once()

	posts, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.Post{{ID: 1, Author: "A", Title: "T", Content: "C"}}, posts)
}

func TestS3Store_LoadErrors(t *testing.T) {
	t.Run("missing object", func(t *testing.T) {
		client := new(MockS3Client)
		client.On("GetObject", mock.Anything, mock.Anything).Return(nil, &types.NoSuchKey{})

		_, err := NewS3Store(client, "bucket", "posts.json", 0).Load(context.Background())
		assert.ErrorIs(t, err, ErrNotInitialized)
	})

	t.Run("corrupt object", func(t *testing.T) {
		client := new(MockS3Client)
		client.On("GetObject", mock.Anything, mock.Anything).Return(&s3.GetObjectOutput{
			Body: io.NopCloser(strings.NewReader(`<xml/>`)),
		}, nil)

		_, err := NewS3Store(client, "bucket", "posts.json", 0).Load(context.Background())
		assert.ErrorIs(t, err, ErrCorrupt)
	})
}

func TestS3Store_Save(t *testing.T) {
	client := new(MockS3Client)
	s := NewS3Store(client, "bucket", "posts.json", 0)

	posts := []model.Post{{ID: 1, Author: "A", Title: "T", Content: "C"}}
	expected, err := encode(posts)
	require.NoError(t, err)

	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return aws.ToString(in.ContentType) == "application/json"
	})).Run(func(args mock.Arguments) {
		assert.Equal(t, string(expected), bodyOf(t, args.Get(1).(*s3.PutObjectInput)))
	}).Return(&s3.PutObjectOutput{}, nil)

	require.NoError(t, s.Save(context.Background(), posts))
	client.AssertExpectations(t)
}
