// Package file stores submitted compliance documents in Cloudinary and
// hands back the stable URL that governance records persist.
package file

import (
	"context"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const documentFolder = "governance-documents"

type DocumentStore struct {
	cloudName string
	apiKey    string
	apiSecret string
}

func New(cloudName, apiKey, apiSecret string) *DocumentStore {
	return &DocumentStore{
		cloudName: cloudName,
		apiKey:    apiKey,
		apiSecret: apiSecret,
	}
}

// Upload pushes a document to the store and returns its secure URL.
func (s *DocumentStore) Upload(ctx context.Context, file io.Reader) (string, error) {
	cld, err := cloudinary.NewFromParams(s.cloudName, s.apiKey, s.apiSecret)
	if err != nil {
		return "", err
	}

	uploadResult, err := cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder: documentFolder,
	})
	if err != nil {
		return "", err
	}

	return uploadResult.SecureURL, nil
}
