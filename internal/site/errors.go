package site

import "errors"

// Sentinel causes wrapped by stage errors. Match with errors.Is.
var (
	ErrAssetMissing     = errors.New("asset directory missing")
	ErrIndexMissing     = errors.New("index document missing")
	ErrConversionFailed = errors.New("notebook conversion failed")
	ErrSiteBuildFailed  = errors.New("site build failed")
)
