package api

import (
	"FinFetch/internal/provider"
	xhttp "FinFetch/pkg/http"
)

// ClassifyError maps provider failure kinds onto HTTP statuses. It is
// installed as the server's error classifier. The kind tag is surfaced
// to the service stats by the classifier middleware.
func ClassifyError(err error) *xhttp.AppError {
	msg := err.Error()
	kind := provider.KindOf(err)
	var appErr *xhttp.AppError
	switch kind {
	case provider.KindValidation:
		appErr = xhttp.BadRequestError(msg)
	case provider.KindAuthorization:
		appErr = xhttp.ForbiddenError(msg)
	case provider.KindNotFound:
		appErr = xhttp.NotFoundError(msg)
	case provider.KindTimeout:
		appErr = xhttp.GatewayTimeoutError(msg)
	case provider.KindConnectivity:
		appErr = xhttp.ServiceUnavailableError(msg)
	case provider.KindRateLimited:
		appErr = xhttp.TooManyRequestsError(msg)
	default:
		appErr = xhttp.InternalError(msg).WithError(err)
	}
	return appErr.WithKind(string(kind))
}
