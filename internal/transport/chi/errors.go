package chi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/audiodex/internal/domain"
	"github.com/kailas-cloud/audiodex/internal/logger"
)

// errorMapping is the HTTP rendition of a domain error.
type errorMapping struct {
	status  int
	code    ErrorResponseCode
	message string
}

// errorHandler maps a domain error it recognises. Returns false otherwise.
type errorHandler func(err error) (errorMapping, bool)

var internalError = errorMapping{
	status:  http.StatusInternalServerError,
	code:    ErrorResponseCodeInternalError,
	message: "internal error",
}

// validationHandler forwards the parser's message, which names the expected grammar.
func validationHandler(err error) (errorMapping, bool) {
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		return errorMapping{}, false
	}
	return errorMapping{http.StatusBadRequest, ErrorResponseCodeValidationFailed, ve.Message}, true
}

// upstreamHandler forwards the analysis service's status and message unchanged.
func upstreamHandler(err error) (errorMapping, bool) {
	var ue *domain.UpstreamError
	if !errors.As(err, &ue) {
		return errorMapping{}, false
	}
	return errorMapping{ue.HTTPStatus(), ErrorResponseCodeUpstreamError, ue.Message}, true
}

// executionHandler reports the store engine's own message.
func executionHandler(err error) (errorMapping, bool) {
	var ee *domain.ExecutionError
	if !errors.As(err, &ee) {
		return errorMapping{}, false
	}
	return errorMapping{http.StatusInternalServerError, ErrorResponseCodeExecutionFailed, ee.Error()}, true
}

// sentinelHandler matches a single sentinel and reports a fixed message, hiding wrapping context.
func sentinelHandler(sentinel error, status int, code ErrorResponseCode, message string) errorHandler {
	return func(err error) (errorMapping, bool) {
		if !errors.Is(err, sentinel) {
			return errorMapping{}, false
		}
		return errorMapping{status, code, message}, true
	}
}

func (s *Server) classify(err error) errorMapping {
	for _, h := range s.errorHandlers {
		if m, ok := h(err); ok {
			return m
		}
	}
	return internalError
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	m := s.classify(err)
	log := logger.FromContext(r.Context())
	if m == internalError {
		log.Error("internal error", zap.Error(err))
	} else {
		log.Warn("domain error", zap.Error(err))
	}
	writeError(w, m.status, m.code, m.message)
}
