package echoServer

import (
	"net/http"

	"libraryservice/app/echoServer/controller/auth"
	"libraryservice/app/echoServer/controller/book"
	"libraryservice/app/echoServer/controller/borrowing"
	"libraryservice/app/echoServer/jwtx"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

type C struct {
	Auth      *auth.Controller
	Book      *book.Controller
	Borrowing *borrowing.Controller
	JWTSecret string
}

func Register(e *echo.Echo, c C) {
	// Public
	pub := e.Group("/v1")
	pub.POST("/users/register", c.Auth.Register)
	pub.POST("/users/login", c.Auth.Login)

	// Catalog reads are open to anyone
	pub.GET("/books", c.Book.List)
	pub.GET("/books/:id", c.Book.Detail)

	// Auth
	auth := e.Group("/v1")
	auth.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(c.JWTSecret),

		NewClaimsFunc: func(c echo.Context) jwt.Claims { return jwt.MapClaims{} },
		TokenLookup:   "header:Authorization",
	}))
	// user_id + role extraction
	auth.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			uid, err := jwtx.UserIDFromContext(ctx)
			if err != nil {
				reqID := ctx.Response().Header().Get(echo.HeaderXRequestID)
				ctx.Logger().Warnf("[AUTH] %v req_id=%s ip=%s", err, reqID, ctx.RealIP())
				return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}
			role, _ := jwtx.RoleFromContext(ctx)

			ctx.Set("user_id", uid)
			ctx.Set("role", role)
			return next(ctx)
		}
	})

	// Catalog writes (admin checked in the controller)
	auth.POST("/books", c.Book.Create)
	auth.PUT("/books/:id", c.Book.Update)
	auth.PATCH("/books/:id", c.Book.PartialUpdate)
	auth.DELETE("/books/:id", c.Book.Delete)

	// Borrowings
	auth.GET("/borrowings", c.Borrowing.List)
	auth.GET("/borrowings/:id", c.Borrowing.Detail)
	auth.POST("/borrowings", c.Borrowing.Create)
	auth.GET("/borrowings/:id/return", c.Borrowing.Return)
}
