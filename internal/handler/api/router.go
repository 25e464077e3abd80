package api

import (
	"github.com/labstack/echo/v4"
)

// Router bundles the REST and live-channel handlers behind one route
// registrar.
type Router struct {
	stocks *StocksHandler
	live   *LiveHandler
}

func NewRouter(stocks *StocksHandler, live *LiveHandler) *Router {
	return &Router{stocks: stocks, live: live}
}

func (r *Router) RegisterRoutes(e *echo.Echo) {
	r.stocks.RegisterRoutes(e)
	r.live.RegisterRoutes(e)
}
