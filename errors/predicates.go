package errors

import (
	"errors"
	"strings"
)

// IsInputValidation reports whether err is an input validation error.
func IsInputValidation(err error) bool {
	return errors.Is(err, ErrInputValidation)
}

// IsExternalLookup reports whether err is an external lookup error.
func IsExternalLookup(err error) bool {
	return errors.Is(err, ErrExternalLookup)
}

// IsGeneration reports whether err is a generation error.
func IsGeneration(err error) bool {
	return errors.Is(err, ErrGeneration)
}

// IsScoringContract reports whether err is a scoring contract violation.
func IsScoringContract(err error) bool {
	return errors.Is(err, ErrScoringContract)
}

// IsPersistence reports whether err is a persistence error.
func IsPersistence(err error) bool {
	return errors.Is(err, ErrPersistence)
}

// IsNotFound reports whether err means the article does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsBusy reports whether err means another invocation holds the article.
func IsBusy(err error) bool {
	return errors.Is(err, ErrArticleBusy)
}

// Retryable reports whether re-invoking resume may succeed once the
// underlying fault is resolved. Contract violations and bad input are not.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindExternalLookup, KindGeneration, KindPersistence, KindBusy:
		return true
	default:
		return false
	}
}

// IsConnectionError checks if an error is connection-related.
// This includes TLS errors, timeouts, and network connectivity issues.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrConnectionFailed) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	// Network connectivity
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "network is unreachable") ||
		strings.Contains(errStr, "dial tcp") {
		return true
	}
	if strings.Contains(errStr, "certificate") ||
		strings.Contains(errStr, "x509") {
		return true
	}
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded")
}
