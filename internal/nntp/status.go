package nntp

// Kind is the semantic class of a status code.
type Kind int

const (
	// KindNone means success or an informational reply.
	KindNone Kind = iota
	// KindConnection means nothing usable was read from the socket.
	KindConnection
	// KindProtocol means the server refused the command with a known code.
	KindProtocol
	// KindUnexpected is any code missing from the status table.
	KindUnexpected
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindConnection:
		return "connection"
	case KindProtocol:
		return "protocol"
	default:
		return "unexpected"
	}
}

// AUTHINFO replies. They stay out of the status table.
const (
	StatusAuthAccepted     = 281
	StatusPasswordRequired = 381
	StatusAuthRejected     = 481
)

// Status codes this client interprets itself.
const (
	StatusReadFailure       = 0
	StatusGroupSelected     = 211
	StatusArticleExists     = 223
	StatusNoSuchGroup       = 411
	StatusNoGroupSelected   = 412
	StatusNoArticleSelected = 420
	StatusNoNextArticle     = 421
	StatusNoPreviousArticle = 422
	StatusNoSuchArticleNum  = 423
	StatusNoSuchArticle     = 430
	StatusArticleNotWanted  = 435
	StatusTransferFailed    = 436
	StatusArticleRejected   = 437
	StatusPostingNotAllowed = 440
	StatusPostingFailed     = 441
	StatusUnknownCommand    = 500
	StatusSyntaxError       = 501
	StatusPermissionDenied  = 502
	StatusProgramFault      = 503
)

var statusText = map[int]string{
	StatusReadFailure:       "error while reading socket data",
	StatusGroupSelected:     "group selected",
	StatusArticleExists:     "article exists",
	StatusNoSuchGroup:       "no such group",
	StatusNoGroupSelected:   "no newsgroup has been selected",
	StatusNoArticleSelected: "no article has been selected",
	StatusNoNextArticle:     "no next article found",
	StatusNoPreviousArticle: "no previous article found",
	StatusNoSuchArticleNum:  "no such article number in this group",
	StatusNoSuchArticle:     "no such article found",
	StatusArticleNotWanted:  "article not wanted - do not send",
	StatusTransferFailed:    "transfer failed - try again later",
	StatusArticleRejected:   "article rejected - do not try again",
	StatusPostingNotAllowed: "posting not allowed",
	StatusPostingFailed:     "posting failed",
	StatusUnknownCommand:    "command not recognized",
	StatusSyntaxError:       "command syntax error",
	StatusPermissionDenied:  "access restriction or permission denied",
	StatusProgramFault:      "program fault",
}

// Classify maps a status code from the table to its kind. Codes outside
// the table are KindUnexpected; whether a command succeeded is decided by
// Positive, not by Classify.
func Classify(code int) Kind {
	switch code {
	case StatusReadFailure:
		return KindConnection
	case StatusGroupSelected, StatusArticleExists:
		return KindNone
	}
	if Known(code) {
		return KindProtocol
	}
	return KindUnexpected
}

// Positive reports whether code is a 1xx, 2xx or 3xx completion.
func Positive(code int) bool {
	return code >= 100 && code < 400
}

// Known reports whether code has an entry in the status table.
func Known(code int) bool {
	_, ok := statusText[code]
	return ok
}

// StatusText returns the message for code, or "unexpected response".
func StatusText(code int) string {
	if s, ok := statusText[code]; ok {
		return s
	}
	return "unexpected response"
}
