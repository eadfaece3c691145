package errdefs

import "errors"

type ErrorType int

const (
	ErrTypeNotLinux ErrorType = iota
	ErrTypeInvalidArchitecture
	ErrTypeUnsupportedDistribution
	ErrTypeRunningAsRoot
	ErrTypeNoDesktopSession
	ErrTypeNoNetwork
	ErrTypeInvalidConfig
	ErrTypeInvalidManifest
	ErrTypeCloneFailed
	ErrTypeCommandFailed
	ErrTypeUnsupportedTerminal
	ErrTypeInstallTimeout
	ErrTypeStepOverflow
	ErrTypeStepMismatch
	ErrTypeGeneric
)

type CustomError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *CustomError) Unwrap() error {
	return e.Err
}

func NewCustomError(errType ErrorType, message string) error {
	return &CustomError{
		Type:    errType,
		Message: message,
	}
}

// WrapCustomError attaches a type and message to an underlying error.
func WrapCustomError(errType ErrorType, message string, err error) error {
	return &CustomError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// IsType reports whether any CustomError in err's chain has the given type.
func IsType(err error, errType ErrorType) bool {
	for err != nil {
		var ce *CustomError
		if !errors.As(err, &ce) {
			return false
		}
		if ce.Type == errType {
			return true
		}
		err = ce.Err
	}
	return false
}

var ErrRunningAsRoot = NewCustomError(ErrTypeRunningAsRoot, "Please do not run this installer with sudo. Exiting...")
