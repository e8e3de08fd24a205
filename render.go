package spacetraveling

import (
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// renderPage writes a page the server generated itself, as opposed to a
// file from the output directory.
func renderPage(c echo.Context, code int, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}

// renderTransient writes a page that must not be cached, such as the
// loading page that refreshes into the rendered post.
func renderTransient(c echo.Context, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return renderPage(c, http.StatusOK, cmp)
}
