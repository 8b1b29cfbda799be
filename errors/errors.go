// Package errors defines the service-wide error type carrying both an HTTP
// and a gRPC status code, one constructor per rejection class the API can
// produce: validation, authentication, authorization, conflict, rate limit,
// dependency, and internal failures.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceError is an error with a dual HTTP/gRPC status mapping and optional
// structured details that surface as RFC 9457 extension members.
type ServiceError struct {
	Message  string
	GRPCCode codes.Code
	HTTPCode int
	Details  map[string]any
	cause    error
	typeURI  string // overrides the default RFC 9457 type URI when set
}

func (e *ServiceError) Error() string { return e.Message }

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *ServiceError) Unwrap() error { return e.cause }

// GRPCStatus maps the error onto a gRPC status.
func (e *ServiceError) GRPCStatus() *status.Status {
	return status.New(e.GRPCCode, e.Message)
}

// The With* decorators all return copies; a ServiceError value is never
// mutated after construction, so the package-level constructors can be
// shared freely.

// WithDetail returns a copy with one extra detail entry.
func (e *ServiceError) WithDetail(key string, value any) *ServiceError {
	return e.WithDetails(map[string]any{key: value})
}

// WithDetails returns a copy with every given detail entry added.
func (e *ServiceError) WithDetails(details map[string]any) *ServiceError {
	out := e.clone()
	if out.Details == nil {
		out.Details = make(map[string]any, len(details))
	}
	for k, v := range details {
		out.Details[k] = v
	}
	return out
}

// WithType returns a copy whose RFC 9457 type URI is uri.
func (e *ServiceError) WithType(uri string) *ServiceError {
	out := e.clone()
	out.typeURI = uri
	return out
}

// WithCause returns a copy wrapping err for Unwrap chaining.
func (e *ServiceError) WithCause(err error) *ServiceError {
	out := e.clone()
	out.cause = err
	return out
}

func (e *ServiceError) clone() *ServiceError {
	out := *e
	if e.Details != nil {
		out.Details = make(map[string]any, len(e.Details))
		for k, v := range e.Details {
			out.Details[k] = v
		}
	}
	return &out
}

func newError(msg string, grpcCode codes.Code, httpCode int) *ServiceError {
	return &ServiceError{Message: msg, GRPCCode: grpcCode, HTTPCode: httpCode}
}

// ValidationError: invalid input, 400 / INVALID_ARGUMENT.
func ValidationError(msg string) *ServiceError {
	return newError(msg, codes.InvalidArgument, http.StatusBadRequest)
}

// NotFoundError: missing resource, 404 / NOT_FOUND.
func NotFoundError(msg string) *ServiceError {
	return newError(msg, codes.NotFound, http.StatusNotFound)
}

// UnauthorizedError: missing or invalid session, 401 / UNAUTHENTICATED.
func UnauthorizedError(msg string) *ServiceError {
	return newError(msg, codes.Unauthenticated, http.StatusUnauthorized)
}

// ForbiddenError: ownership, role, or CSRF denial, 403 / PERMISSION_DENIED.
func ForbiddenError(msg string) *ServiceError {
	return newError(msg, codes.PermissionDenied, http.StatusForbidden)
}

// ConflictError: duplicate resource, 409 / ALREADY_EXISTS.
func ConflictError(msg string) *ServiceError {
	return newError(msg, codes.AlreadyExists, http.StatusConflict)
}

// PayloadTooLargeError: oversized request body, 413 / INVALID_ARGUMENT.
func PayloadTooLargeError(msg string) *ServiceError {
	return newError(msg, codes.InvalidArgument, http.StatusRequestEntityTooLarge)
}

// RateLimitError: request budget exhausted, 429 / RESOURCE_EXHAUSTED.
func RateLimitError(msg string) *ServiceError {
	return newError(msg, codes.ResourceExhausted, http.StatusTooManyRequests)
}

// DependencyError: an unreachable backing service such as the database,
// 503 / UNAVAILABLE.
func DependencyError(msg string) *ServiceError {
	return newError(msg, codes.Unavailable, http.StatusServiceUnavailable)
}

// InternalError: unexpected failure, 500 / INTERNAL.
func InternalError(msg string) *ServiceError {
	return newError(msg, codes.Internal, http.StatusInternalServerError)
}

// FromError coerces any error into a *ServiceError: an existing one comes
// back unchanged, anything else is wrapped as internal.
func FromError(err error) *ServiceError {
	if err == nil {
		return nil
	}
	var se *ServiceError
	if stderrors.As(err, &se) {
		return se
	}
	return InternalError(err.Error()).WithCause(err)
}

// Errorf builds a ServiceError through factory with a formatted message.
func Errorf(factory func(string) *ServiceError, format string, args ...any) *ServiceError {
	return factory(fmt.Sprintf(format, args...))
}
