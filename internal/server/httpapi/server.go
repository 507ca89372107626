// Package httpapi exposes the JSON API consumed by the mobile client. Every
// response is wrapped in the {isSuccess, message, data} envelope.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"sharedshoppinglist/internal/logging"
	"sharedshoppinglist/internal/server/auth"
	"sharedshoppinglist/internal/server/models"
	"sharedshoppinglist/internal/server/services"
)

// IdentityService covers registration, login and refresh-token rotation.
type IdentityService interface {
	Register(ctx context.Context, firstName, lastName, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.TokenPair, error)
	Refresh(ctx context.Context, accessToken, refreshToken string) (*services.TokenPair, error)
}

// ListService covers shopping-list management and the settlement export.
type ListService interface {
	GetAllForUser(ctx context.Context, userID int64) ([]models.ShoppingListSummary, error)
	Create(ctx context.Context, userID int64, name string) (*models.ShoppingListSummary, error)
	Join(ctx context.Context, userID int64, shareCode string) (*models.ShoppingListSummary, error)
	Leave(ctx context.Context, userID, listID int64) error
	Rename(ctx context.Context, listID int64, name string) (*models.ShoppingListSummary, error)
	GetMembers(ctx context.Context, listID int64) ([]models.Member, error)
	IsActiveMember(ctx context.Context, listID, userID int64) (bool, error)
	Export(ctx context.Context, listID int64, from, to time.Time) ([]models.ExportEntry, error)
}

// ProductService covers the products on a list.
type ProductService interface {
	Get(ctx context.Context, productID int64) (*models.ProductView, error)
	Create(ctx context.Context, userID, listID int64, name string, price int64, isShared bool) (*models.ProductView, error)
	GetAllForList(ctx context.Context, listID int64) ([]models.ProductView, error)
	Update(ctx context.Context, productID int64, name string, price int64, isShared bool) (*models.ProductView, error)
	Delete(ctx context.Context, productID int64) error
	UndoDelete(ctx context.Context, productID int64) (*models.ProductView, error)
	Buy(ctx context.Context, userID, productID int64) (*models.ProductView, error)
	UndoBuy(ctx context.Context, userID, productID int64) (*models.ProductView, error)
	ListIDOf(ctx context.Context, productID int64) (int64, error)
	AddedBy(ctx context.Context, productID int64) (int64, error)
}

type Server struct {
	address  string
	tokens   *auth.TokenManager
	identity IdentityService
	lists    ListService
	products ProductService
	logger   logging.Logger
}

func NewServer(address string, tokens *auth.TokenManager, id IdentityService, ls ListService, ps ProductService, l logging.Logger) *Server {
	return &Server{
		address:  address,
		tokens:   tokens,
		identity: id,
		lists:    ls,
		products: ps,
		logger:   l.With("module", "http_server"),
	}
}

// Routes builds the Echo instance with all handlers registered.
func (s *Server) Routes() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.GET("/healthz", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	a := e.Group("/api/auth")
	a.POST("/register", s.register)
	a.POST("/login", s.login)
	a.POST("/refresh", s.refresh)

	sl := e.Group("/api/shoppinglist", s.requireAuth)
	sl.GET("/getAllForUser", s.getAllForUser)
	sl.POST("/create", s.createList)
	sl.PUT("/join/:shareCode", s.joinList)
	sl.PUT("/leave/:listId", s.leaveList)
	sl.PUT("/rename/:listId", s.renameList)
	sl.GET("/getMembers/:listId", s.getMembers)
	sl.GET("/getExport/:listId", s.getExport)

	p := e.Group("/api/product", s.requireAuth)
	p.GET("/:id", s.getProduct)
	p.POST("/create", s.createProduct)
	p.GET("/getAllForList/:listId", s.getProductsOfList)
	p.DELETE("/delete/:productId", s.deleteProduct)
	p.PUT("/undoDelete/:productId", s.undoDeleteProduct)
	p.PUT("/buy/:productId", s.buyProduct)
	p.PUT("/undoBuy/:productId", s.undoBuyProduct)
	p.PUT("/update/:productId", s.updateProduct)

	return e
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	e := s.Routes()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := e.Start(s.address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
