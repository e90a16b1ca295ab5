package handlers

// Stable machine-readable codes carried in the ErrorResponse envelope.
// Generic codes mirror HTTP status semantics; the rest distinguish resolve
// and quote failures the status alone cannot convey, e.g.
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "quota_exhausted",
//	  "message": "daily scrape quota exhausted"
//	}
const (
	ErrCodeBadRequest  = "bad_request"
	ErrCodeNotFound    = "not_found"
	ErrCodeRateLimited = "too_many_requests"
	ErrCodeInternal    = "internal_error"

	ErrCodeQuotaExhausted    = "quota_exhausted"
	ErrCodeDriverUnavailable = "driver_unavailable"
	ErrCodeScrapeFailed      = "scrape_failed"
	ErrCodeResolveFailed     = "resolve_failed"
	ErrCodeQuoteFailed       = "quote_failed"
	ErrCodeListFailed        = "list_failed"
	ErrCodeMethodNotAllowed  = "method_not_allowed"
)
