package domain

import "errors"

// ErrArticleNotFound indicates a 430 response from Usenet
var ErrArticleNotFound = errors.New("article not found")

// Status-backed conditions. nntp.ProtocolError matches these with errors.Is.
var (
	ErrNoSuchGroup         = errors.New("no such group")
	ErrNoGroupSelected     = errors.New("no newsgroup has been selected")
	ErrNoArticleSelected   = errors.New("no article has been selected")
	ErrNoNextArticle       = errors.New("no next article found")
	ErrNoPreviousArticle   = errors.New("no previous article found")
	ErrNoSuchArticleNumber = errors.New("no such article number in this group")
)

// ErrSessionClosed is returned by every operation on a closed session.
var ErrSessionClosed = errors.New("session closed")

// ErrAuthRejected is returned when the server refuses AUTHINFO credentials.
var ErrAuthRejected = errors.New("authentication rejected")
