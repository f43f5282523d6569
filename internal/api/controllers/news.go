package controllers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/datallboy/newsreader/internal/app"
	"github.com/datallboy/newsreader/internal/browser"
	"github.com/datallboy/newsreader/internal/domain"
	"github.com/datallboy/newsreader/internal/nntp"
	"github.com/labstack/echo/v5"
)

// NewsController serves read-only views of the news server. Every
// request gets its own session, closed before the response completes.
type NewsController struct {
	App *app.Context
}

func (ctrl *NewsController) open(c *echo.Context) (domain.Reader, error) {
	r, err := ctrl.App.Open(c.Request().Context())
	if err != nil {
		return nil, ctrl.fail(err)
	}
	return r, nil
}

// ListGroups returns the active groups sorted by name
func (ctrl *NewsController) ListGroups(c *echo.Context) error {
	r, err := ctrl.open(c)
	if err != nil {
		return err
	}
	defer r.Close()

	groups, err := browser.NewService(r, ctrl.App.Logger, domain.ContentBody, true).Groups(c.Request().Context())
	if err != nil {
		return ctrl.fail(err)
	}
	return c.JSON(http.StatusOK, GroupsResponse{Groups: groups})
}

// ListArticleIDs returns the article numbers of a group in server order
func (ctrl *NewsController) ListArticleIDs(c *echo.Context) error {
	group := c.Param("group")
	if err := domain.ValidateGroup(group); err != nil {
		return ctrl.fail(err)
	}

	r, err := ctrl.open(c)
	if err != nil {
		return err
	}
	defer r.Close()

	ids, err := r.ListArticleIDs(c.Request().Context(), group)
	if err != nil {
		return ctrl.fail(err)
	}
	return c.JSON(http.StatusOK, ArticleIDsResponse{Group: group, IDs: ids})
}

func (ctrl *NewsController) GroupArticle(c *echo.Context) error {
	return ctrl.article(c, domain.ArticleNumber(c.Param("group"), c.Param("id")))
}

func (ctrl *NewsController) MessageArticle(c *echo.Context) error {
	return ctrl.article(c, domain.MessageID(messageID(c.Param("id"))))
}

func (ctrl *NewsController) GroupArticleExists(c *echo.Context) error {
	return ctrl.exists(c, domain.ArticleNumber(c.Param("group"), c.Param("id")))
}

func (ctrl *NewsController) MessageArticleExists(c *echo.Context) error {
	return ctrl.exists(c, domain.MessageID(messageID(c.Param("id"))))
}

func (ctrl *NewsController) article(c *echo.Context, addr domain.Address) error {
	mode, err := domain.ParseContentMode(c.QueryParam("content"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := addr.Validate(); err != nil {
		return ctrl.fail(err)
	}

	r, err := ctrl.open(c)
	if err != nil {
		return err
	}
	defer r.Close()

	text, err := r.Article(c.Request().Context(), addr, mode)
	if err != nil {
		return ctrl.fail(err)
	}
	return c.String(http.StatusOK, text)
}

func (ctrl *NewsController) exists(c *echo.Context, addr domain.Address) error {
	if err := addr.Validate(); err != nil {
		return ctrl.fail(err)
	}

	r, err := ctrl.open(c)
	if err != nil {
		return err
	}
	defer r.Close()

	ok, err := r.Exists(c.Request().Context(), addr)
	if err != nil {
		return ctrl.fail(err)
	}
	return c.JSON(http.StatusOK, ExistsResponse{ID: addr.ID, Group: addr.Group, Exists: ok})
}

// fail maps session errors onto HTTP statuses.
func (ctrl *NewsController) fail(err error) error {
	status := httpStatus(err)
	if status >= http.StatusInternalServerError {
		ctrl.App.Logger.Error("news server: %v", err)
	}
	return echo.NewHTTPError(status, err.Error())
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidAddress),
		errors.Is(err, domain.ErrInvalidGroup),
		errors.Is(err, nntp.ErrInvalidCommand):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNoSuchGroup),
		errors.Is(err, domain.ErrNoSuchArticleNumber),
		errors.Is(err, domain.ErrArticleNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNoGroupSelected),
		errors.Is(err, domain.ErrNoArticleSelected):
		return http.StatusConflict
	}

	var ce *nntp.ConnectionError
	if errors.As(err, &ce) {
		return http.StatusServiceUnavailable
	}
	var pe *nntp.ProtocolError
	if errors.As(err, &pe) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// messageID decodes a path segment and adds the angle brackets NNTP
// expects around message ids.
func messageID(raw string) string {
	id, err := url.PathUnescape(raw)
	if err != nil {
		id = raw
	}
	if !strings.HasPrefix(id, "<") {
		id = "<" + id + ">"
	}
	return id
}
