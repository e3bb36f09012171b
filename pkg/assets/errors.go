// Copyright 2025 LandingPress Authors
// SPDX-License-Identifier: Apache-2.0

package assets

import (
	"errors"

	"github.com/LeeDigitalWorks/landingpress/pkg/objstore"
	"github.com/LeeDigitalWorks/landingpress/pkg/transcode"
)

var (
	// ErrUnsupportedReference: the value looked like an image reference but
	// matches none of the accepted encodings.
	ErrUnsupportedReference = errors.New("unsupported image reference")
	// ErrDecodeFailed: an inline payload could not be decoded.
	ErrDecodeFailed = errors.New("image payload decode failed")
	// ErrFetchFailed: a remote or blob reference could not be retrieved.
	ErrFetchFailed = errors.New("image fetch failed")
	// ErrAssetTooLarge: the payload exceeds the configured size limit.
	ErrAssetTooLarge = errors.New("image payload too large")
	// ErrSkipped: the leaf was not attempted because the run was aborted.
	ErrSkipped = errors.New("upload skipped")
	// ErrProjectContextRequired: no project context was given or resolvable.
	ErrProjectContextRequired = errors.New("project context required")

	ErrUnsupportedFormat  = transcode.ErrUnsupportedFormat
	ErrStorageUnavailable = objstore.ErrStorageUnavailable
)

// errorClass is a short, stable label for metrics and reports.
func errorClass(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSkipped):
		return "skipped"
	case errors.Is(err, ErrUnsupportedReference):
		return "unsupported_reference"
	case errors.Is(err, ErrDecodeFailed):
		return "decode_failed"
	case errors.Is(err, ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, ErrAssetTooLarge):
		return "too_large"
	case errors.Is(err, ErrFetchFailed):
		return "fetch_failed"
	case errors.Is(err, ErrStorageUnavailable):
		return "storage_unavailable"
	default:
		return "error"
	}
}
