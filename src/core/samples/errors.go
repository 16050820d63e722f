package samples

import "errors"

var (
	ErrSamplesNotFound        = errors.New("samples: samples not found")
	ErrSampleFileNotSpecified = errors.New("samples: sample file not specified")
	ErrPermissionDenied       = errors.New("samples: permission denied")
	ErrInvalidFormat          = errors.New("samples: invalid sample format")
)

// Reasons carried by canonical error records.
const (
	ReasonNotFound        = "samples not found"
	ReasonNotSpecified    = "sample file not specified"
	ReasonInvalidFormat   = "invalid/non-standard sample format"
	ReasonPermission      = "permission denied reading samples"
	ReasonIndexOutOfRange = "sample index out of range"
)

// ReasonFor maps a load or validation error to the reason shown in its
// canonical error record.
func ReasonFor(err error) string {
	switch {
	case errors.Is(err, ErrSamplesNotFound):
		return ReasonNotFound
	case errors.Is(err, ErrSampleFileNotSpecified):
		return ReasonNotSpecified
	case errors.Is(err, ErrPermissionDenied):
		return ReasonPermission
	default:
		return ReasonInvalidFormat
	}
}
