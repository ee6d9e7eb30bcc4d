package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoaoMarques95/dinners/internal/common"
	sc "github.com/JoaoMarques95/dinners/internal/server/config"
	"github.com/JoaoMarques95/dinners/internal/server/models"
)

func newUserRecipeSvc(t *testing.T, m *fakeRepoManager) (*UserRecipeService, sqlmockCloser) {
	t.Helper()
	db, mock := newSQLMockDB(t)
	cfg := &sc.Config{
		S3Region:       "us-east-1",
		S3RootUser:     "minioadmin",
		S3RootPassword: "minioadmin",
		S3BaseEndpoint: "http://127.0.0.1:9000",
		S3Bucket:       "dinners",
	}
	return NewUserRecipeService(db, m, cfg), sqlmockCloser{db: db, mock: mock}
}

// stubPresign replaces the AWS seams with stubs for the duration of the test.
func stubPresign(t *testing.T, url string, presignErr error) {
	t.Helper()

	origLoad, origNewS3, origNewPre := loadDefaultAWSConfig, newS3ClientFromConfig, newS3PresignClient
	origPut, origGet := presignPutObject, presignGetObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
		presignPutObject = origPut
		presignGetObject = origGet
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			if err := fn(&lo); err != nil {
				t.Fatalf("load options fn error: %v", err)
			}
		}
		if lo.Region != "us-east-1" {
			t.Fatalf("region not applied: %q", lo.Region)
		}
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client { return &s3.Client{} }
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient { return &s3.PresignClient{} }

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		if presignErr != nil {
			return nil, presignErr
		}
		return &v4.PresignedHTTPRequest{URL: url}, nil
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		if presignErr != nil {
			return nil, presignErr
		}
		return &v4.PresignedHTTPRequest{URL: url + "/" + *in.Key}, nil
	}
}

func TestUserRecipeAnnotate(t *testing.T) {
	m := newFakeRepoManager()
	m.recipes.recipes["r1"] = &models.BaseRecipe{ID: "r1", DefaultServings: 2}

	svc, h := newUserRecipeSvc(t, m)
	defer h.db.Close()

	rating := 4
	require.NoError(t, svc.Annotate(context.Background(), "u1", "r1", "less salt next time", &rating))

	row, err := m.userRecipes.Get(context.Background(), "u1", "r1")
	require.NoError(t, err)
	assert.Equal(t, "less salt next time", row.Notes)
	require.NotNil(t, row.Rating)
	assert.Equal(t, 4, *row.Rating)

	// Upsert replaces the previous annotation.
	require.NoError(t, svc.Annotate(context.Background(), "u1", "r1", "perfect", nil))
	row, err = m.userRecipes.Get(context.Background(), "u1", "r1")
	require.NoError(t, err)
	assert.Equal(t, "perfect", row.Notes)
	assert.Nil(t, row.Rating)
}

func TestUserRecipeAnnotateValidation(t *testing.T) {
	m := newFakeRepoManager()
	m.recipes.recipes["r1"] = &models.BaseRecipe{ID: "r1", DefaultServings: 2}

	svc, h := newUserRecipeSvc(t, m)
	defer h.db.Close()

	for _, rating := range []int{0, 6} {
		r := rating
		err := svc.Annotate(context.Background(), "u1", "r1", "", &r)
		assert.ErrorIs(t, err, common.ErrorValidation)
	}

	err := svc.Annotate(context.Background(), "u1", "nope", "", nil)
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestUserRecipePhotoUploadURL(t *testing.T) {
	m := newFakeRepoManager()
	m.recipes.recipes["r1"] = &models.BaseRecipe{ID: "r1", DefaultServings: 2}

	svc, h := newUserRecipeSvc(t, m)
	defer h.db.Close()

	stubPresign(t, "http://127.0.0.1:9000/dinners/upload", nil)

	key, url, err := svc.PhotoUploadURL(context.Background(), "u1", "r1")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9000/dinners/upload", url)
	assert.True(t, strings.HasPrefix(key, "photos/u1/"))

	row, err := m.userRecipes.Get(context.Background(), "u1", "r1")
	require.NoError(t, err)
	assert.Equal(t, key, row.PhotoKey)
}

func TestUserRecipePhotoUploadURLErrors(t *testing.T) {
	m := newFakeRepoManager()
	m.recipes.recipes["r1"] = &models.BaseRecipe{ID: "r1", DefaultServings: 2}

	svc, h := newUserRecipeSvc(t, m)
	defer h.db.Close()

	_, _, err := svc.PhotoUploadURL(context.Background(), "u1", "nope")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	stubPresign(t, "", errors.New("presign-put-fail"))
	_, _, err = svc.PhotoUploadURL(context.Background(), "u1", "r1")
	require.EqualError(t, err, "presign-put-fail")
}

func TestUserRecipePhotoDownloadURL(t *testing.T) {
	m := newFakeRepoManager()
	m.userRecipes.rows["u1|r1"] = &models.UserRecipe{UserID: "u1", RecipeID: "r1", PhotoKey: "photos/u1/k1"}
	m.userRecipes.rows["u1|r2"] = &models.UserRecipe{UserID: "u1", RecipeID: "r2"}

	svc, h := newUserRecipeSvc(t, m)
	defer h.db.Close()

	stubPresign(t, "http://127.0.0.1:9000/dinners", nil)

	url, err := svc.PhotoDownloadURL(context.Background(), "u1", "r1")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9000/dinners/photos/u1/k1", url)

	_, err = svc.PhotoDownloadURL(context.Background(), "u1", "r2")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = svc.PhotoDownloadURL(context.Background(), "u1", "r3")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
