package transport

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/service"
)

type ShortLinkResp struct {
	ShortLink string `json:"short-link"`
}

func (s *HTTPServer) RecipeList(c echo.Context) error {
	page, err := s.pageRequest(c)
	if err != nil {
		return err
	}

	filter := service.RecipeFilter{
		TagSlugs:         c.QueryParams()["tags"],
		IsFavorited:      c.QueryParam("is_favorited") == "1",
		IsInShoppingCart: c.QueryParam("is_in_shopping_cart") == "1",
	}
	if raw := c.QueryParam("author"); raw != "" {
		author, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return service.ValidationError(service.CodeInvalidInput, "author", "author must be a user id")
		}
		filter.AuthorID = author
	}

	recipes, err := s.recipes.List(c.Request().Context(), GetUserFromContext(c), filter, page)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newPageResp(c, recipes))
}

func (s *HTTPServer) RecipeGet(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}

	recipe, err := s.recipes.Get(c.Request().Context(), GetUserFromContext(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, recipe)
}

func (s *HTTPServer) RecipeCreate(c echo.Context) error {
	user := GetUserFromContext(c)
	if user == nil {
		return service.UnauthorizedError(service.CodeAuthenticationRequired, "authentication credentials were not provided")
	}

	req := service.RecipeInput{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	recipe, err := s.recipes.Create(c.Request().Context(), user, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, recipe)
}

func (s *HTTPServer) RecipeUpdate(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	user := GetUserFromContext(c)
	if user == nil {
		return service.UnauthorizedError(service.CodeAuthenticationRequired, "authentication credentials were not provided")
	}

	req := service.RecipeInput{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	recipe, err := s.recipes.Update(c.Request().Context(), user, id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, recipe)
}

func (s *HTTPServer) RecipeDelete(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}

	if err := s.recipes.Delete(c.Request().Context(), GetUserFromContext(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *HTTPServer) FavoriteAdd(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}

	recipe, err := s.recipes.Favorite(c.Request().Context(), GetUserFromContext(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, recipe)
}

func (s *HTTPServer) FavoriteRemove(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}

	if err := s.recipes.Unfavorite(c.Request().Context(), GetUserFromContext(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *HTTPServer) ShoppingCartAdd(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}

	recipe, err := s.recipes.AddToCart(c.Request().Context(), GetUserFromContext(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, recipe)
}

func (s *HTTPServer) ShoppingCartRemove(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}

	if err := s.recipes.RemoveFromCart(c.Request().Context(), GetUserFromContext(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *HTTPServer) DownloadShoppingCart(c echo.Context) error {
	text, err := s.recipes.ShoppingList(c.Request().Context(), GetUserFromContext(c))
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s"`, service.ShoppingListFilename))
	return c.Blob(http.StatusOK, echo.MIMETextPlainCharsetUTF8, []byte(text))
}

func (s *HTTPServer) RecipeShortLink(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}

	link, err := s.recipes.ShortLink(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ShortLinkResp{ShortLink: link})
}

func (s *HTTPServer) ShortLinkRedirect(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}

	target, err := s.recipes.ResolveShortLink(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, target)
}
