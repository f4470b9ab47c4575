package transport

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/service"
)

type (
	RegisterReq struct {
		Email     string `json:"email" validate:"required,email,max=254"`
		Username  string `json:"username" validate:"required,max=150,username"`
		FirstName string `json:"first_name" validate:"required,max=150"`
		LastName  string `json:"last_name" validate:"required,max=150"`
		Password  string `json:"password" validate:"required,max=128"`
	}

	RegisterResp struct {
		ID        uint64 `json:"id"`
		Email     string `json:"email"`
		Username  string `json:"username"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}

	LoginReq struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResp struct {
		AuthToken string `json:"auth_token"`
	}

	SetPasswordReq struct {
		NewPassword     string `json:"new_password" validate:"required,max=128"`
		CurrentPassword string `json:"current_password" validate:"required"`
	}

	AvatarReq struct {
		Avatar string `json:"avatar"`
	}

	AvatarResp struct {
		Avatar string `json:"avatar"`
	}
)

func (s *HTTPServer) Register(c echo.Context) error {
	req := RegisterReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := s.users.Register(c.Request().Context(), service.RegisterInput{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, RegisterResp{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	})
}

func (s *HTTPServer) Login(c echo.Context) error {
	req := LoginReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	token, err := s.users.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, LoginResp{AuthToken: token})
}

func (s *HTTPServer) Logout(c echo.Context) error {
	if err := s.users.Logout(c.Request().Context(), GetUserFromContext(c)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *HTTPServer) SetPassword(c echo.Context) error {
	user := GetUserFromContext(c)
	if user == nil {
		return service.UnauthorizedError(service.CodeAuthenticationRequired, "authentication credentials were not provided")
	}

	req := SetPasswordReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	if err := s.users.SetPassword(c.Request().Context(), user, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *HTTPServer) UserList(c echo.Context) error {
	page, err := s.pageRequest(c)
	if err != nil {
		return err
	}

	users, err := s.users.List(c.Request().Context(), GetUserFromContext(c), page)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newPageResp(c, users))
}

func (s *HTTPServer) UserGet(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}

	user, err := s.users.Get(c.Request().Context(), GetUserFromContext(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func (s *HTTPServer) Me(c echo.Context) error {
	user, err := s.users.Me(c.Request().Context(), GetUserFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func (s *HTTPServer) AvatarSet(c echo.Context) error {
	user := GetUserFromContext(c)
	if user == nil {
		return service.UnauthorizedError(service.CodeAuthenticationRequired, "authentication credentials were not provided")
	}

	req := AvatarReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	avatar, err := s.users.SetAvatar(c.Request().Context(), user, req.Avatar)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, AvatarResp{Avatar: avatar})
}

func (s *HTTPServer) AvatarDelete(c echo.Context) error {
	if err := s.users.DeleteAvatar(c.Request().Context(), GetUserFromContext(c)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *HTTPServer) Subscriptions(c echo.Context) error {
	page, err := s.pageRequest(c)
	if err != nil {
		return err
	}

	subs, err := s.users.Subscriptions(c.Request().Context(), GetUserFromContext(c), page, recipesLimit(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newPageResp(c, subs))
}

func (s *HTTPServer) Subscribe(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}

	sub, err := s.users.Subscribe(c.Request().Context(), GetUserFromContext(c), id, recipesLimit(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, sub)
}

func (s *HTTPServer) Unsubscribe(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}

	if err := s.users.Unsubscribe(c.Request().Context(), GetUserFromContext(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
