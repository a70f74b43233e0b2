package apperr

import (
	"errors"

	"github.com/aryankodi12/AmazonWebScraper/pkg/zerror"
)

const (
	ValidationErrorCode       = "VALIDATION_FAILED"
	ProductNotFoundCode       = "PRODUCT_NOT_FOUND"
	ProductAlreadyTrackedCode = "PRODUCT_ALREADY_TRACKED"
	ProductFetchFailedCode    = "PRODUCT_FETCH_FAILED"
	ProductStaleWriteCode     = "PRODUCT_STALE_WRITE"
)

var (
	ValidationErr = zerror.NewValidationFailed(ValidationErrorCode, "validation error")

	ProductNotFoundErr       = zerror.NewNotFound(ProductNotFoundCode, "product is not tracked")
	ProductAlreadyTrackedErr = zerror.NewConflict(ProductAlreadyTrackedCode, "product ref is already tracked")
	ProductFetchFailedErr    = zerror.NewBadGateway(ProductFetchFailedCode, "fetching product data failed")
	ProductStaleWriteErr     = zerror.NewConflict(ProductStaleWriteCode, "product was updated by a newer refresh")
)

// HasCode reports whether err carries a ZError with the given code anywhere
// in its chain.
func HasCode(err error, code string) bool {
	var zErr zerror.ZError
	return errors.As(err, &zErr) && zErr.Code() == code
}
