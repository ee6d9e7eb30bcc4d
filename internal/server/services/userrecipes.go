package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/JoaoMarques95/dinners/internal/common"
	sc "github.com/JoaoMarques95/dinners/internal/server/config"
	"github.com/JoaoMarques95/dinners/internal/server/models"
	"github.com/JoaoMarques95/dinners/internal/server/repositories/repomanager"
)

// Seams for testing the AWS presign flow.
var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// UserRecipeService manages per-user recipe annotations: notes, a 1..5
// rating, and a photo held in object storage and reached through presigned
// URLs.
type UserRecipeService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
}

func NewUserRecipeService(db *sql.DB, m repomanager.RepositoryManager, config *sc.Config) *UserRecipeService {
	return &UserRecipeService{db: db, repomanager: m, config: config}
}

// photoStorageKey produces a fresh object key for a recipe photo upload.
func photoStorageKey(userID string) string {
	d := time.Now()
	return fmt.Sprintf("photos/%s/%d/%d/%d/%v", userID, d.Year(), d.Month(), d.Day(), uuid.New())
}

// Annotate upserts the user's notes and rating on a recipe. Rating, when
// provided, must be within 1..5.
func (s *UserRecipeService) Annotate(ctx context.Context, userID, recipeID, notes string, rating *int) error {
	if rating != nil && (*rating < 1 || *rating > 5) {
		return fmt.Errorf("rating must be within 1..5, got %d: %w", *rating, common.ErrorValidation)
	}

	if _, err := s.repomanager.Recipes(s.db).Get(ctx, recipeID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("unknown recipe %s: %w", recipeID, common.ErrorValidation)
		}
		return err
	}

	return s.repomanager.UserRecipes(s.db).Upsert(ctx, &models.UserRecipe{
		UserID:   userID,
		RecipeID: recipeID,
		Notes:    notes,
		Rating:   rating,
	})
}

func (s *UserRecipeService) getPresignClient() (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		awsconfig.WithRegion(s.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
	})

	return newS3PresignClient(client), nil
}

// PhotoUploadURL mints a presigned PUT URL for a new recipe photo and
// records its storage key on the user's annotation row.
func (s *UserRecipeService) PhotoUploadURL(ctx context.Context, userID, recipeID string) (string, string, error) {
	if _, err := s.repomanager.Recipes(s.db).Get(ctx, recipeID); err != nil {
		return "", "", err
	}

	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", "", err
	}

	bucket := s.config.S3Bucket
	key := photoStorageKey(userID)

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", "", err
	}

	if err := s.repomanager.UserRecipes(s.db).SetPhotoKey(ctx, userID, recipeID, key); err != nil {
		return "", "", err
	}

	return key, req.URL, nil
}

// PhotoDownloadURL mints a presigned GET URL for the user's recipe photo.
// ErrorNotFound when no photo was ever uploaded.
func (s *UserRecipeService) PhotoDownloadURL(ctx context.Context, userID, recipeID string) (string, error) {
	row, err := s.repomanager.UserRecipes(s.db).Get(ctx, userID, recipeID)
	if err != nil {
		return "", err
	}
	if row.PhotoKey == "" {
		return "", common.ErrorNotFound
	}

	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &row.PhotoKey,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}
