package domain

import "context"

// GroupInfo is one entry of the active group listing.
type GroupInfo struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Article is a fetched article as handed to presentation layers.
type Article struct {
	Group   string
	Index   int // position within the walk, starting at 0
	Content string
	Mode    ContentMode
}

// Reader represents the contract for a news server session.
// Implementations are single-owner and not safe for concurrent use.
type Reader interface {
	ListGroups(ctx context.Context) (map[string]int, error)
	ListArticleIDs(ctx context.Context, group string) ([]string, error)
	SelectGroup(ctx context.Context, group string) error
	Article(ctx context.Context, addr Address, mode ContentMode) (string, error)
	Exists(ctx context.Context, addr Address) (bool, error)
	Next(ctx context.Context) (bool, error)
	Close() error
}
