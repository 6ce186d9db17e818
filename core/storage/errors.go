package storage

import (
	"errors"

	"github.com/minio/minio-go/v7"
)

// IsNotFound reports whether err is an S3 "no such key" or "no such bucket"
// response, possibly wrapped.
func IsNotFound(err error) bool {
	var resp minio.ErrorResponse
	if !errors.As(err, &resp) {
		return false
	}
	switch resp.Code {
	case "NoSuchKey", "NoSuchBucket":
		return true
	}
	return false
}
