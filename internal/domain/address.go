package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidAddress wraps every Address validation failure.
var ErrInvalidAddress = errors.New("invalid article address")

// ErrInvalidGroup wraps group names that cannot go into a command.
var ErrInvalidGroup = errors.New("invalid group name")

// AddressMode tells how an Address identifies an article.
type AddressMode int

const (
	// CurrentSelection is whatever article the session last navigated to.
	CurrentSelection AddressMode = iota
	// ByMessageID is a globally unique <message-id>; no group needed.
	ByMessageID
	// ByGroupAndArticleID is an article number relative to Group.
	ByGroupAndArticleID
)

// Address identifies one article on the server.
type Address struct {
	Mode  AddressMode
	Group string
	ID    string
}

func Current() Address { return Address{Mode: CurrentSelection} }

func MessageID(id string) Address { return Address{Mode: ByMessageID, ID: id} }

func ArticleNumber(group, id string) Address {
	return Address{Mode: ByGroupAndArticleID, Group: group, ID: id}
}

// Validate rejects addresses that would produce an ambiguous command.
func (a Address) Validate() error {
	switch a.Mode {
	case CurrentSelection:
		return nil
	case ByMessageID:
		if a.ID == "" {
			return fmt.Errorf("%w: message id is required", ErrInvalidAddress)
		}
	case ByGroupAndArticleID:
		if a.Group == "" {
			return fmt.Errorf("%w: group is required for article %q", ErrInvalidAddress, a.ID)
		}
		if a.ID == "" {
			return fmt.Errorf("%w: article id is required", ErrInvalidAddress)
		}
		if !isToken(a.Group) {
			return fmt.Errorf("%w: group %q", ErrInvalidAddress, a.Group)
		}
	default:
		return fmt.Errorf("%w: unknown mode %d", ErrInvalidAddress, a.Mode)
	}
	if !isToken(a.ID) {
		return fmt.Errorf("%w: id %q", ErrInvalidAddress, a.ID)
	}
	return nil
}

// ValidateGroup rejects group names that are empty or would not survive
// as a single command argument.
func ValidateGroup(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidGroup)
	}
	if !isToken(name) {
		return fmt.Errorf("%w: %q", ErrInvalidGroup, name)
	}
	return nil
}

// isToken reports whether s holds no whitespace or control bytes, so it
// stays one argument on one command line.
func isToken(s string) bool {
	for i := 0; i < len(s); i++ {
		if b := s[i]; b <= ' ' || b == 0x7f {
			return false
		}
	}
	return true
}

func (a Address) String() string {
	switch a.Mode {
	case ByMessageID:
		return a.ID
	case ByGroupAndArticleID:
		return a.Group + "/" + a.ID
	default:
		return "(current)"
	}
}
