package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

type listNameRequest struct {
	Name string `json:"name"`
}

const exportDateLayout = "2006-01-02"

func pathID(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}

// requireMember answers nil when the caller belongs to the list; otherwise it
// has already written the rejection.
func (s *Server) requireMember(c echo.Context, listID int64) error {
	member, err := s.lists.IsActiveMember(c.Request().Context(), listID, currentUserID(c))
	if err != nil {
		return fail(c, http.StatusInternalServerError, msgSomethingWentWrong)
	}
	if !member {
		return fail(c, http.StatusUnauthorized, msgNotMemberOfList)
	}
	return nil
}

func (s *Server) getAllForUser(c echo.Context) error {
	lists, err := s.lists.GetAllForUser(c.Request().Context(), currentUserID(c))
	if err != nil {
		return fail(c, http.StatusBadRequest, errorMessage(err))
	}
	return ok(c, lists)
}

func (s *Server) createList(c echo.Context) error {
	var req listNameRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, msgInvalidRequest)
	}

	summary, err := s.lists.Create(c.Request().Context(), currentUserID(c), req.Name)
	if err != nil {
		return fail(c, http.StatusBadRequest, errorMessage(err))
	}
	return ok(c, summary)
}

func (s *Server) joinList(c echo.Context) error {
	summary, err := s.lists.Join(c.Request().Context(), currentUserID(c), c.Param("shareCode"))
	if err != nil {
		return fail(c, http.StatusBadRequest, errorMessage(err))
	}
	return ok(c, summary)
}

func (s *Server) leaveList(c echo.Context) error {
	listID, err := pathID(c, "listId")
	if err != nil {
		return fail(c, http.StatusBadRequest, msgInvalidRequest)
	}

	if err := s.lists.Leave(c.Request().Context(), currentUserID(c), listID); err != nil {
		return fail(c, http.StatusBadRequest, errorMessage(err))
	}
	return ok(c, true)
}

func (s *Server) renameList(c echo.Context) error {
	listID, err := pathID(c, "listId")
	if err != nil {
		return fail(c, http.StatusBadRequest, msgInvalidRequest)
	}
	var req listNameRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, msgInvalidRequest)
	}
	if err := s.requireMember(c, listID); err != nil {
		return err
	}

	summary, err := s.lists.Rename(c.Request().Context(), listID, req.Name)
	if err != nil {
		return fail(c, http.StatusBadRequest, errorMessage(err))
	}
	return ok(c, summary)
}

func (s *Server) getMembers(c echo.Context) error {
	listID, err := pathID(c, "listId")
	if err != nil {
		return fail(c, http.StatusBadRequest, msgInvalidRequest)
	}
	if err := s.requireMember(c, listID); err != nil {
		return err
	}

	members, err := s.lists.GetMembers(c.Request().Context(), listID)
	if err != nil {
		return fail(c, http.StatusBadRequest, errorMessage(err))
	}
	return ok(c, members)
}

// getExport settles the window from the start of startDate to the end of
// endDate, both inclusive.
func (s *Server) getExport(c echo.Context) error {
	listID, err := pathID(c, "listId")
	if err != nil {
		return fail(c, http.StatusBadRequest, msgInvalidRequest)
	}
	from, err := time.Parse(exportDateLayout, c.QueryParam("startDate"))
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid startDate.")
	}
	to, err := time.Parse(exportDateLayout, c.QueryParam("endDate"))
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid endDate.")
	}
	if err := s.requireMember(c, listID); err != nil {
		return err
	}

	entries, err := s.lists.Export(c.Request().Context(), listID, from, to.Add(24*time.Hour-time.Nanosecond))
	if err != nil {
		return fail(c, http.StatusBadRequest, errorMessage(err))
	}
	return ok(c, entries)
}
