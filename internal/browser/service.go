package browser

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/datallboy/newsreader/internal/domain"
	"github.com/datallboy/newsreader/internal/infra/logger"
)

// Service walks groups on one session and hands articles to a callback.
type Service struct {
	reader       domain.Reader
	log          *logger.Logger
	mode         domain.ContentMode
	showCanceled bool
}

func NewService(r domain.Reader, log *logger.Logger, mode domain.ContentMode, showCanceled bool) *Service {
	return &Service{
		reader:       r,
		log:          log,
		mode:         mode,
		showCanceled: showCanceled,
	}
}

// Groups returns the active groups sorted by name.
func (s *Service) Groups(ctx context.Context) ([]domain.GroupInfo, error) {
	groups, err := s.reader.ListGroups(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.GroupInfo, 0, len(groups))
	for name, count := range groups {
		out = append(out, domain.GroupInfo{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// Walk selects group and calls fn for every article from the first one
// the server points at until "next" reports the end of the group.
// Canceled articles are skipped unless the service shows them.
func (s *Service) Walk(ctx context.Context, group string, fn func(domain.Article) error) error {
	if err := s.reader.SelectGroup(ctx, group); err != nil {
		return err
	}

	emitted, skipped := 0, 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		text, err := s.reader.Article(ctx, domain.Current(), s.mode)
		if err != nil {
			if emitted+skipped == 0 && errors.Is(err, domain.ErrNoArticleSelected) {
				s.log.Info("group %s is empty", group)
				return nil
			}
			return err
		}

		canceled, err := s.canceled(ctx, text)
		if err != nil {
			return err
		}

		if canceled && !s.showCanceled {
			skipped++
		} else {
			if err := fn(domain.Article{Group: group, Index: emitted, Content: text, Mode: s.mode}); err != nil {
				return err
			}
			emitted++
		}

		more, err := s.reader.Next(ctx)
		if err != nil {
			return fmt.Errorf("advance in %s: %w", group, err)
		}
		if !more {
			break
		}
	}

	s.log.Debug("group %s: %d articles, %d canceled skipped", group, emitted, skipped)
	return nil
}

func (s *Service) canceled(ctx context.Context, text string) (bool, error) {
	if s.showCanceled {
		return false, nil
	}
	if s.mode.HasHeaders() {
		return IsCanceled(text), nil
	}

	head, err := s.reader.Article(ctx, domain.Current(), domain.ContentHeader)
	if err != nil {
		return false, err
	}
	return IsCanceled(head), nil
}

// IsCanceled reports whether an article's header block marks it as a
// cancel control message.
func IsCanceled(article string) bool {
	for _, line := range strings.Split(article, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			// end of headers
			return false
		}

		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.ToLower(strings.TrimSpace(value))

		switch strings.ToLower(name) {
		case "control":
			if strings.HasPrefix(value, "cancel") {
				return true
			}
		case "subject":
			if strings.HasPrefix(value, "cmsg cancel") {
				return true
			}
		}
	}
	return false
}
