package extract

import "errors"

var (
	// ErrAssetFailed wraps a warning whose governing policy resolved to
	// fail, aborting the whole ingest.
	ErrAssetFailed = errors.New("asset processing failed")

	// ErrPayloadTooLarge indicates an asset payload exceeded the
	// configured per-kind size cap.
	ErrPayloadTooLarge = errors.New("asset payload exceeds size cap")

	// ErrNoPayload indicates an asset carried neither inline data nor a URL.
	ErrNoPayload = errors.New("asset has no data or url")
)
