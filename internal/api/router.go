package api

import (
	"github.com/datallboy/newsreader/internal/api/controllers"
	"github.com/datallboy/newsreader/internal/app"
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
)

func RegisterRoutes(e *echo.Echo, app *app.Context) {

	// Every request is one news session; log which server it went to
	news := app.Config.Server.Host
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogMethod:    true,
		LogRoutePath: true,
		LogURI:       true,
		LogLatency:   true,
		LogValuesFunc: func(c *echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				app.Logger.Warn("%s %s [%s] via %s | %d | %s | %v", v.Method, v.URI, v.RoutePath, news, v.Status, v.Latency, v.Error)
				return nil
			}
			app.Logger.Info("%s %s [%s] via %s | %d | %s", v.Method, v.URI, v.RoutePath, news, v.Status, v.Latency)
			return nil
		},
	}))

	newsCtrl := &controllers.NewsController{App: app}

	e.GET("/api/groups", newsCtrl.ListGroups)
	e.GET("/api/groups/:group/articles", newsCtrl.ListArticleIDs)
	e.GET("/api/groups/:group/articles/:id", newsCtrl.GroupArticle)
	e.GET("/api/groups/:group/articles/:id/exists", newsCtrl.GroupArticleExists)

	// Message ids are global; no group in the path
	e.GET("/api/articles/:id", newsCtrl.MessageArticle)
	e.GET("/api/articles/:id/exists", newsCtrl.MessageArticleExists)
}
