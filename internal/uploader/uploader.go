// Package uploader publishes rendered scorecard images to Cloudinary so chat
// messages can reference them by URL.
package uploader

import (
	"bytes"
	"context"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

const folder = "kudos/scorecards"

type Config struct {
	CloudName string
	APIKey    string
	APISecret string
}

type Service struct {
	cld *cloudinary.Cloudinary
}

func NewService(c Config) (*Service, error) {
	if c.CloudName == "" || c.APIKey == "" || c.APISecret == "" {
		return nil, fmt.Errorf("uploader: cloudinary configuration is missing")
	}

	cld, err := cloudinary.NewFromParams(c.CloudName, c.APIKey, c.APISecret)
	if err != nil {
		return nil, fmt.Errorf("uploader: init cloudinary: %w", err)
	}

	return &Service{cld: cld}, nil
}

// UploadImage stores the image under a random public id and returns its HTTPS
// URL. Every render gets a fresh id so chat clients never serve a stale
// cached scorecard.
func (s *Service) UploadImage(ctx context.Context, data []byte) (string, error) {
	result, err := s.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		PublicID:     uuid.NewString(),
		Folder:       folder,
		ResourceType: "image",
	})
	if err != nil {
		return "", fmt.Errorf("uploader: upload image: %w", err)
	}

	return result.SecureURL, nil
}
