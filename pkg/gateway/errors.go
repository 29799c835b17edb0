package gateway

import (
	"errors"
	"fmt"
)

// Sentinel errors classifying gateway failures. Every error returned by
// the gateway wraps one of these, so callers can branch with errors.Is.
var (
	// ErrInvalidConfig indicates bad or missing platform configuration.
	ErrInvalidConfig = errors.New("invalid gateway configuration")

	// ErrUnsupportedService indicates an unknown service variant was requested.
	ErrUnsupportedService = errors.New("unsupported service")

	// ErrUnsupportedShipment indicates the shipment type does not match the variant.
	ErrUnsupportedShipment = errors.New("unsupported shipment")

	// ErrMissingRelayPoint indicates a relay shipment without a chosen relay point.
	ErrMissingRelayPoint = errors.New("missing relay point")

	// ErrUnknownRelayType indicates the chosen relay point carries an unmapped sub-type.
	ErrUnknownRelayType = errors.New("unknown relay point type")

	// ErrInvalidWeight indicates the shipment weight could not be resolved to a positive value.
	ErrInvalidWeight = errors.New("invalid shipment weight")

	// ErrCarrierCall indicates a transport-level failure reaching the carrier.
	ErrCarrierCall = errors.New("carrier call failed")

	// ErrCarrierRejected indicates the carrier responded but declined the request.
	ErrCarrierRejected = errors.New("carrier rejected request")

	// ErrRasterConversion indicates label rendering failed after a successful
	// carrier call. The tracking number is already set at that point; callers
	// can re-attempt conversion without re-shipping.
	ErrRasterConversion = errors.New("raster conversion failed")

	// ErrLabelRetrieval indicates no labels were found when at least one was expected.
	ErrLabelRetrieval = errors.New("label retrieval failed")
)

// Error is a structured gateway error carrying the gateway name, the
// sentinel it classifies as and the original cause when one exists.
type Error struct {
	Gateway string
	Kind    error
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Gateway, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Gateway, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches the error against its sentinel kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func newError(gateway string, kind error, format string, args ...interface{}) *Error {
	return &Error{
		Gateway: gateway,
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

func wrapError(gateway string, kind error, cause error, format string, args ...interface{}) *Error {
	return &Error{
		Gateway: gateway,
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}
