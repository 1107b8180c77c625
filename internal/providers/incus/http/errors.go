package http

import "github.com/crystian/declincus/faults"

func validationError(message string, cause error) error {
	return faults.NewTypedError(faults.ValidationError, message, cause)
}

func notFoundError(message string, cause error) error {
	return faults.NewTypedError(faults.NotFoundError, message, cause)
}

func conflictError(message string, cause error) error {
	return faults.NewTypedError(faults.ConflictError, message, cause)
}

func remoteError(message string, cause error) error {
	return faults.NewTypedError(faults.RemoteError, message, cause)
}

func timeoutError(message string, cause error) error {
	return faults.NewTypedError(faults.TimeoutError, message, cause)
}

func internalError(message string, cause error) error {
	return faults.NewTypedError(faults.InternalError, message, cause)
}
