package media

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strconv"
	"time"

	config "github.com/anjiri1684/coderr/configs"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const (
	ProfileFolder = "coderr_profiles"
	uploadTimeout = 20 * time.Second
)

var ErrNotConfigured = errors.New("media storage is not configured")

// Uploader stores files and returns their public URL.
type Uploader interface {
	Upload(ctx context.Context, file io.Reader, publicID string) (string, error)
}

// Signature is what a browser needs to upload straight to Cloudinary.
type Signature struct {
	Signature string `json:"signature"`
	Timestamp int64  `json:"timestamp"`
	APIKey    string `json:"api_key"`
	CloudName string `json:"cloud_name"`
	Folder    string `json:"folder"`
}

// Store is the uploader used by the handlers. It is nil until Init succeeds.
var Store Uploader

type cloudinaryStore struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// Init connects to Cloudinary using CLOUDINARY_URL.
func Init() error {
	cloudinaryURL := config.Config("CLOUDINARY_URL")
	if cloudinaryURL == "" {
		return ErrNotConfigured
	}
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return err
	}
	Store = &cloudinaryStore{cld: cld, folder: ProfileFolder}
	return nil
}

func (s *cloudinaryStore) Upload(ctx context.Context, file io.Reader, publicID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	result, err := s.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		PublicID: publicID,
		Folder:   s.folder,
	})
	if err != nil {
		return "", err
	}
	if result.Error.Message != "" {
		return "", errors.New(result.Error.Message)
	}
	return result.SecureURL, nil
}

// SignUpload signs folder and the current timestamp with the account secret.
func SignUpload(folder string) (*Signature, error) {
	cloudinaryURL := config.Config("CLOUDINARY_URL")
	if cloudinaryURL == "" {
		return nil, ErrNotConfigured
	}
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, err
	}

	parsedURL, err := url.Parse(cloudinaryURL)
	if err != nil {
		return nil, err
	}
	secret, _ := parsedURL.User.Password()

	paramsToSign, err := api.StructToParams(uploader.UploadParams{Folder: folder})
	if err != nil {
		return nil, err
	}
	timestamp := time.Now().Unix()
	paramsToSign.Set("timestamp", strconv.FormatInt(timestamp, 10))

	signature, err := api.SignParameters(paramsToSign, secret)
	if err != nil {
		return nil, err
	}

	return &Signature{
		Signature: signature,
		Timestamp: timestamp,
		APIKey:    cld.Config.Cloud.APIKey,
		CloudName: cld.Config.Cloud.CloudName,
		Folder:    folder,
	}, nil
}
