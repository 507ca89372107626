package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"sharedshoppinglist/internal/common"
)

type productCreateRequest struct {
	ShoppingListID int64  `json:"shoppingListId"`
	Name           string `json:"name"`
	Price          int64  `json:"price"`
	IsShared       bool   `json:"isShared"`
}

type productUpdateRequest struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	IsShared bool   `json:"isShared"`
}

// requireProductMember resolves the product's list and checks the caller is a
// member of it. A non-nil return means the rejection is already written.
func (s *Server) requireProductMember(c echo.Context, productID int64) error {
	listID, err := s.products.ListIDOf(c.Request().Context(), productID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fail(c, http.StatusBadRequest, "Product does not exist.")
		}
		return fail(c, http.StatusInternalServerError, msgSomethingWentWrong)
	}
	return s.requireMember(c, listID)
}

func (s *Server) getProduct(c echo.Context) error {
	productID, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, msgInvalidRequest)
	}
	if err := s.requireProductMember(c, productID); err != nil {
		return err
	}

	view, err := s.products.Get(c.Request().Context(), productID)
	if err != nil {
		return fail(c, http.StatusBadRequest, errorMessage(err))
	}
	return ok(c, view)
}

func (s *Server) createProduct(c echo.Context) error {
	var req productCreateRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, msgInvalidRequest)
	}
	if err := s.requireMember(c, req.ShoppingListID); err != nil {
		return err
	}

	view, err := s.products.Create(c.Request().Context(), currentUserID(c), req.ShoppingListID, req.Name, req.Price, req.IsShared)
	if err != nil {
		return fail(c, http.StatusBadRequest, errorMessage(err))
	}
	return ok(c, view)
}

func (s *Server) getProductsOfList(c echo.Context) error {
	listID, err := pathID(c, "listId")
	if err != nil {
		return fail(c, http.StatusBadRequest, msgInvalidRequest)
	}
	if err := s.requireMember(c, listID); err != nil {
		return err
	}

	views, err := s.products.GetAllForList(c.Request().Context(), listID)
	if err != nil {
		return fail(c, http.StatusBadRequest, errorMessage(err))
	}
	return ok(c, views)
}

func (s *Server) deleteProduct(c echo.Context) error {
	productID, err := pathID(c, "productId")
	if err != nil {
		return fail(c, http.StatusBadRequest, msgInvalidRequest)
	}
	if err := s.requireProductMember(c, productID); err != nil {
		return err
	}

	ctx := c.Request().Context()
	addedBy, err := s.products.AddedBy(ctx, productID)
	if err != nil {
		return fail(c, http.StatusBadRequest, errorMessage(err))
	}
	if addedBy != currentUserID(c) {
		return fail(c, http.StatusBadRequest, "You cant delete a product added by someone else.")
	}

	if err := s.products.Delete(ctx, productID); err != nil {
		return fail(c, http.StatusBadRequest, errorMessage(err))
	}
	return ok(c, true)
}

func (s *Server) undoDeleteProduct(c echo.Context) error {
	productID, err := pathID(c, "productId")
	if err != nil {
		return fail(c, http.StatusBadRequest, msgInvalidRequest)
	}
	if err := s.requireProductMember(c, productID); err != nil {
		return err
	}

	view, err := s.products.UndoDelete(c.Request().Context(), productID)
	if err != nil {
		return fail(c, http.StatusBadRequest, errorMessage(err))
	}
	return ok(c, view)
}

func (s *Server) buyProduct(c echo.Context) error {
	productID, err := pathID(c, "productId")
	if err != nil {
		return fail(c, http.StatusBadRequest, msgInvalidRequest)
	}

	view, err := s.products.Buy(c.Request().Context(), currentUserID(c), productID)
	if err != nil {
		return fail(c, http.StatusBadRequest, errorMessage(err))
	}
	return ok(c, view)
}

func (s *Server) undoBuyProduct(c echo.Context) error {
	productID, err := pathID(c, "productId")
	if err != nil {
		return fail(c, http.StatusBadRequest, msgInvalidRequest)
	}

	view, err := s.products.UndoBuy(c.Request().Context(), currentUserID(c), productID)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return fail(c, http.StatusBadRequest, "You didn't buy this product.")
		}
		return fail(c, http.StatusBadRequest, errorMessage(err))
	}
	return ok(c, view)
}

func (s *Server) updateProduct(c echo.Context) error {
	productID, err := pathID(c, "productId")
	if err != nil {
		return fail(c, http.StatusBadRequest, msgInvalidRequest)
	}
	var req productUpdateRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, msgInvalidRequest)
	}
	if err := s.requireProductMember(c, productID); err != nil {
		return err
	}

	view, err := s.products.Update(c.Request().Context(), productID, req.Name, req.Price, req.IsShared)
	if err != nil {
		return fail(c, http.StatusBadRequest, errorMessage(err))
	}
	return ok(c, view)
}
