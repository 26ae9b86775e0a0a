package services

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/uni-magazine/apiserver/internal/apperr"
	"github.com/uni-magazine/apiserver/types"
)

var allowedExtensions = map[string]map[string]bool{
	types.AssetArticle: {".doc": true, ".docx": true, ".pdf": true},
	types.AssetImage:   {".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true},
}

// UploadService hands out presigned upload URLs so files never pass through
// the API server.
type UploadService struct {
	objects ObjectStore
}

func NewUploadService(objects ObjectStore) *UploadService {
	return &UploadService{objects: objects}
}

// UploadTicket is a presigned PUT link plus the object key the client must
// reference when submitting the contribution.
type UploadTicket struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// NewUploadURL issues a presigned upload link for one asset file. The object
// key namespaces by user so keys cannot collide or be guessed.
func (s *UploadService) NewUploadURL(ctx context.Context, userID, assetType, filename string) (UploadTicket, error) {
	if assetType != types.AssetArticle && assetType != types.AssetImage {
		return UploadTicket{}, apperr.Validation("asset type must be article or image")
	}

	ext := strings.ToLower(path.Ext(filename))
	if !allowedExtensions[assetType][ext] {
		return UploadTicket{}, apperr.Validation(fmt.Sprintf("file type %q is not allowed for %s uploads", ext, assetType))
	}

	key := fmt.Sprintf("uploads/%s/%s%s", userID, uuid.NewString(), ext)
	url, err := s.objects.UploadURL(ctx, key)
	if err != nil {
		return UploadTicket{}, err
	}
	return UploadTicket{Key: key, URL: url}, nil
}
