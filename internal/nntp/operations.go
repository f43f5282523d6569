package nntp

import (
	"context"
	"fmt"

	"github.com/datallboy/newsreader/internal/domain"
)

// ListGroups returns every active group with its article count.
func (c *Client) ListGroups(ctx context.Context) (map[string]int, error) {
	body, err := c.ExecuteBody(ctx, "list active")
	if err != nil {
		return nil, err
	}
	return parseActive(body), nil
}

// ListArticleIDs returns the article numbers of group in server order.
// listgroup also makes group the selected group.
func (c *Client) ListArticleIDs(ctx context.Context, group string) ([]string, error) {
	if err := domain.ValidateGroup(group); err != nil {
		return nil, err
	}
	body, err := c.ExecuteBody(ctx, "listgroup "+group)
	if err != nil {
		return nil, err
	}
	c.group = group
	return parseArticleIDs(body), nil
}

// SelectGroup makes group the current group. Anything but 211 is an error.
func (c *Client) SelectGroup(ctx context.Context, group string) error {
	if err := domain.ValidateGroup(group); err != nil {
		return err
	}
	code, err := c.Execute(ctx, "group "+group, true)
	if err != nil {
		return err
	}
	if code != StatusGroupSelected {
		return statusError(c.conn.RemoteAddr(), "group "+group, code)
	}
	c.group = group
	c.log.Debug("selected group %s", group)
	return nil
}

// Article fetches one article part. Article-number addresses select
// their group first; message ids never touch the selected group.
func (c *Client) Article(ctx context.Context, addr domain.Address, mode domain.ContentMode) (string, error) {
	if err := addr.Validate(); err != nil {
		return "", err
	}
	if addr.Mode == domain.ByGroupAndArticleID {
		if err := c.SelectGroup(ctx, addr.Group); err != nil {
			return "", err
		}
	}
	return c.fetch(ctx, addr, mode)
}

func (c *Client) fetch(ctx context.Context, addr domain.Address, mode domain.ContentMode) (string, error) {
	return c.ExecuteBody(ctx, withID(mode.Command(), addr))
}

// Articles fetches each address in order and stops at the first error.
// A run of article numbers in one group selects that group once.
func (c *Client) Articles(ctx context.Context, addrs []domain.Address, mode domain.ContentMode) ([]string, error) {
	out := make([]string, 0, len(addrs))
	selected := ""
	for _, addr := range addrs {
		if err := addr.Validate(); err != nil {
			return nil, err
		}

		switch addr.Mode {
		case domain.ByGroupAndArticleID:
			if addr.Group != selected {
				if err := c.SelectGroup(ctx, addr.Group); err != nil {
					return nil, err
				}
				selected = addr.Group
			}
		case domain.CurrentSelection:
			// Navigation may have moved on; reselect on the next numbered address
			selected = ""
		}

		text, err := c.fetch(ctx, addr, mode)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", addr, err)
		}
		out = append(out, text)
	}
	return out, nil
}

// GroupArticles fetches article numbers ids from group, in order.
func (c *Client) GroupArticles(ctx context.Context, group string, ids []string, mode domain.ContentMode) ([]string, error) {
	addrs := make([]domain.Address, 0, len(ids))
	for _, id := range ids {
		addrs = append(addrs, domain.ArticleNumber(group, id))
	}
	return c.Articles(ctx, addrs, mode)
}

// MessageArticles fetches each message id independently, in order.
func (c *Client) MessageArticles(ctx context.Context, ids []string, mode domain.ContentMode) ([]string, error) {
	addrs := make([]domain.Address, 0, len(ids))
	for _, id := range ids {
		addrs = append(addrs, domain.MessageID(id))
	}
	return c.Articles(ctx, addrs, mode)
}

// Exists probes an article with stat. Absence is false, not an error:
// 430 for message ids, 423 for article numbers, 420 for the current
// selection.
func (c *Client) Exists(ctx context.Context, addr domain.Address) (bool, error) {
	if err := addr.Validate(); err != nil {
		return false, err
	}

	missing := StatusNoArticleSelected
	switch addr.Mode {
	case domain.ByMessageID:
		missing = StatusNoSuchArticle
	case domain.ByGroupAndArticleID:
		if err := c.SelectGroup(ctx, addr.Group); err != nil {
			return false, err
		}
		missing = StatusNoSuchArticleNum
	}

	command := withID("stat", addr)
	code, err := c.Execute(ctx, command, false)
	if err != nil {
		return false, err
	}
	switch code {
	case StatusArticleExists:
		return true, nil
	case missing:
		return false, nil
	default:
		return false, statusError(c.conn.RemoteAddr(), command, code)
	}
}

// Next advances the current article pointer. It returns false at the
// end of the group (421); other refusals are errors.
func (c *Client) Next(ctx context.Context) (bool, error) {
	code, err := c.Execute(ctx, "next", false)
	if err != nil {
		return false, err
	}
	if code == StatusNoNextArticle {
		return false, nil
	}
	if !Positive(code) {
		return false, statusError(c.conn.RemoteAddr(), "next", code)
	}
	return true, nil
}

func withID(verb string, addr domain.Address) string {
	if addr.Mode == domain.CurrentSelection {
		return verb
	}
	return verb + " " + addr.ID
}
