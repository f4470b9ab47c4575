package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/media"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrPasswordDoesNotMatch = errors.New("password does not match")
)

var passwordCost = 14

// SetPasswordCost changes the bcrypt cost used for new password hashes.
func SetPasswordCost(cost int) {
	passwordCost = cost
}

type (
	Users struct {
		db     *gorm.DB
		media  media.Store
		logger *zap.SugaredLogger
	}

	RegisterInput struct {
		Email     string
		Username  string
		FirstName string
		LastName  string
		Password  string
	}
)

func NewUsers(conn *gorm.DB, store media.Store, l *zap.SugaredLogger) *Users {
	return &Users{
		db:     conn,
		media:  store,
		logger: l,
	}
}

func (s *Users) Register(ctx context.Context, in RegisterInput) (*UserView, error) {
	hash, err := bcryptGen(in.Password)
	if err != nil {
		return nil, errors.Wrap(err, "bcryptGen")
	}

	user := db.User{
		Email:     in.Email,
		Username:  in.Username,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Password:  hash,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&db.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
			return errors.Wrap(err, "check email")
		}
		if count > 0 {
			return ConflictError(CodeAlreadyExists, "a user with this email already exists")
		}
		if err := tx.Model(&db.User{}).Where("username = ?", user.Username).Count(&count).Error; err != nil {
			return errors.Wrap(err, "check username")
		}
		if count > 0 {
			return ConflictError(CodeAlreadyExists, "a user with this username already exists")
		}
		if err := tx.Create(&user).Error; err != nil {
			if isDuplicate(err) {
				return ConflictError(CodeAlreadyExists, "a user with this email or username already exists")
			}
			return errors.Wrap(err, "create user")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("user registered", "user_id", user.ID)
	v := ProjectUser(&user, false, s.media.URL)
	return &v, nil
}

// Login issues a fresh token for the user with the given credentials.
func (s *Users) Login(ctx context.Context, email, pass string) (string, error) {
	user := db.User{}
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if isRecordNotFound(err) {
			return "", s.badCredentials(ErrUserNotFound)
		}
		return "", errors.Wrap(err, "find user")
	}

	if err := bcryptCheck(user.Password, pass); err != nil {
		return "", s.badCredentials(ErrPasswordDoesNotMatch)
	}

	token := uuid.New().String()
	if err := s.db.WithContext(ctx).Model(&user).Update("token", token).Error; err != nil {
		return "", errors.Wrap(err, "update token")
	}
	return token, nil
}

func (s *Users) badCredentials(cause error) error {
	s.logger.Debugw("login rejected", "reason", cause)
	return ValidationError(CodeInvalidCredentials, "", "unable to log in with provided credentials")
}

func (s *Users) Logout(ctx context.Context, user *db.User) error {
	if user == nil {
		return UnauthorizedError(CodeAuthenticationRequired, "authentication credentials were not provided")
	}
	if err := s.db.WithContext(ctx).Model(user).Update("token", "").Error; err != nil {
		return errors.Wrap(err, "clear token")
	}
	user.Token = ""
	return nil
}

// Authenticate resolves a token to its user.
func (s *Users) Authenticate(ctx context.Context, token string) (*db.User, error) {
	if token == "" {
		return nil, UnauthorizedError(CodeInvalidToken, "invalid token")
	}
	user := db.User{}
	if err := s.db.WithContext(ctx).Where("token = ?", token).First(&user).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, UnauthorizedError(CodeInvalidToken, "invalid token")
		}
		return nil, errors.Wrap(err, "find user by token")
	}
	return &user, nil
}

func (s *Users) SetPassword(ctx context.Context, user *db.User, current, next string) error {
	if user == nil {
		return UnauthorizedError(CodeAuthenticationRequired, "authentication credentials were not provided")
	}
	if err := bcryptCheck(user.Password, current); err != nil {
		return ValidationError(CodeInvalidCredentials, "current_password", "invalid password")
	}
	hash, err := bcryptGen(next)
	if err != nil {
		return errors.Wrap(err, "bcryptGen")
	}
	if err := s.db.WithContext(ctx).Model(user).Update("password", hash).Error; err != nil {
		return errors.Wrap(err, "update password")
	}
	user.Password = hash
	return nil
}

func (s *Users) Get(ctx context.Context, viewer *db.User, id uint64) (*UserView, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	subscribed, err := subscribedTo(ctx, s.db, viewer, []uint64{user.ID})
	if err != nil {
		return nil, err
	}
	v := ProjectUser(user, subscribed[user.ID], s.media.URL)
	return &v, nil
}

func (s *Users) Me(ctx context.Context, viewer *db.User) (*UserView, error) {
	if viewer == nil {
		return nil, UnauthorizedError(CodeAuthenticationRequired, "authentication credentials were not provided")
	}
	return s.Get(ctx, viewer, viewer.ID)
}

func (s *Users) List(ctx context.Context, viewer *db.User, page PageRequest) (*Page[UserView], error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&db.User{}).Count(&count).Error; err != nil {
		return nil, errors.Wrap(err, "count users")
	}
	if err := page.check(count); err != nil {
		return nil, err
	}

	users := make([]db.User, 0, page.Limit)
	err := s.db.WithContext(ctx).Order("id").Limit(page.Limit).Offset(page.Offset()).Find(&users).Error
	if err != nil {
		return nil, errors.Wrap(err, "list users")
	}

	ids := make([]uint64, len(users))
	for i := range users {
		ids[i] = users[i].ID
	}
	subscribed, err := subscribedTo(ctx, s.db, viewer, ids)
	if err != nil {
		return nil, err
	}

	views := make([]UserView, len(users))
	for i := range users {
		views[i] = ProjectUser(&users[i], subscribed[users[i].ID], s.media.URL)
	}
	return &Page[UserView]{Count: count, Page: page.Page, Limit: page.Limit, Items: views}, nil
}

// SetAvatar stores a new avatar and returns its public URL.
func (s *Users) SetAvatar(ctx context.Context, user *db.User, dataURI string) (string, error) {
	if user == nil {
		return "", UnauthorizedError(CodeAuthenticationRequired, "authentication credentials were not provided")
	}
	if strings.TrimSpace(dataURI) == "" {
		return "", ValidationError(CodeMissingField, "avatar", "this field is required")
	}
	img, err := media.Decode(dataURI)
	if err != nil {
		return "", ValidationError(CodeInvalidImage, "avatar", "avatar must be a base64 encoded data:image URI")
	}
	ref, err := s.media.Save(ctx, media.AvatarsDir, img)
	if err != nil {
		return "", errors.Wrap(err, "save avatar")
	}

	old := user.Avatar
	if err := s.db.WithContext(ctx).Model(user).Update("avatar", ref).Error; err != nil {
		s.removeAvatar(ctx, ref)
		return "", errors.Wrap(err, "update avatar")
	}
	user.Avatar = ref
	s.removeAvatar(ctx, old)
	return s.media.URL(ref), nil
}

func (s *Users) DeleteAvatar(ctx context.Context, user *db.User) error {
	if user == nil {
		return UnauthorizedError(CodeAuthenticationRequired, "authentication credentials were not provided")
	}
	old := user.Avatar
	if err := s.db.WithContext(ctx).Model(user).Update("avatar", "").Error; err != nil {
		return errors.Wrap(err, "clear avatar")
	}
	user.Avatar = ""
	s.removeAvatar(ctx, old)
	return nil
}

func (s *Users) removeAvatar(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	if err := s.media.Delete(ctx, ref); err != nil {
		s.logger.Warnw("failed to remove avatar", "ref", ref, "error", err)
	}
}

// Subscribe makes viewer follow the author and returns the author with
// their recipes.
func (s *Users) Subscribe(ctx context.Context, viewer *db.User, authorID uint64, recipesLimit int) (*SubscriptionView, error) {
	if viewer == nil {
		return nil, UnauthorizedError(CodeAuthenticationRequired, "authentication credentials were not provided")
	}
	author, err := s.find(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if author.ID == viewer.ID {
		return nil, toggle(relationSubscription, "add", ConflictError(CodeSelfSubscription, "you can not subscribe to yourself"))
	}

	row := &db.Subscription{UserID: viewer.ID, AuthorID: author.ID}
	where := map[string]interface{}{"user_id": viewer.ID, "author_id": author.ID}
	if err := toggle(relationSubscription, "add", addPair(ctx, s.db, row, where, "you are already subscribed to this user")); err != nil {
		return nil, err
	}

	views, err := s.subscriptionViews(ctx, []db.User{*author}, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *Users) Unsubscribe(ctx context.Context, viewer *db.User, authorID uint64) error {
	if viewer == nil {
		return UnauthorizedError(CodeAuthenticationRequired, "authentication credentials were not provided")
	}
	author, err := s.find(ctx, authorID)
	if err != nil {
		return err
	}
	if author.ID == viewer.ID {
		return toggle(relationSubscription, "remove", ConflictError(CodeSelfSubscription, "you can not unsubscribe from yourself"))
	}
	where := map[string]interface{}{"user_id": viewer.ID, "author_id": author.ID}
	return toggle(relationSubscription, "remove",
		removePair(ctx, s.db, &db.Subscription{}, where, "you are not subscribed to this user"))
}

// Subscriptions lists the authors viewer follows, in subscription order.
func (s *Users) Subscriptions(ctx context.Context, viewer *db.User, page PageRequest, recipesLimit int) (*Page[SubscriptionView], error) {
	if viewer == nil {
		return nil, UnauthorizedError(CodeAuthenticationRequired, "authentication credentials were not provided")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&db.Subscription{}).Where("user_id = ?", viewer.ID).Count(&count).Error; err != nil {
		return nil, errors.Wrap(err, "count subscriptions")
	}
	if err := page.check(count); err != nil {
		return nil, err
	}

	subs := make([]db.Subscription, 0, page.Limit)
	err := s.db.WithContext(ctx).
		Preload("Author").
		Where("user_id = ?", viewer.ID).
		Order("id").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&subs).Error
	if err != nil {
		return nil, errors.Wrap(err, "list subscriptions")
	}

	authors := make([]db.User, 0, len(subs))
	for _, sub := range subs {
		if sub.Author != nil {
			authors = append(authors, *sub.Author)
		}
	}
	views, err := s.subscriptionViews(ctx, authors, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &Page[SubscriptionView]{Count: count, Page: page.Page, Limit: page.Limit, Items: views}, nil
}

// NoRecipesLimit keeps every recipe in a subscription view.
const NoRecipesLimit = -1

// subscriptionViews projects followed authors. A negative recipesLimit means
// no limit, zero leaves the recipes list empty.
func (s *Users) subscriptionViews(ctx context.Context, authors []db.User, recipesLimit int) ([]SubscriptionView, error) {
	views := make([]SubscriptionView, len(authors))
	for i := range authors {
		var count int64
		if err := s.db.WithContext(ctx).Model(&db.Recipe{}).Where("author_id = ?", authors[i].ID).Count(&count).Error; err != nil {
			return nil, errors.Wrap(err, "count author recipes")
		}

		recipes := make([]db.Recipe, 0)
		if recipesLimit != 0 {
			q := s.db.WithContext(ctx).Where("author_id = ?", authors[i].ID).Order("created_at DESC").Order("id DESC")
			if recipesLimit > 0 {
				q = q.Limit(recipesLimit)
			}
			if err := q.Find(&recipes).Error; err != nil {
				return nil, errors.Wrap(err, "list author recipes")
			}
		}

		minified := make([]RecipeMinifiedView, len(recipes))
		for j := range recipes {
			minified[j] = ProjectRecipeMinified(&recipes[j], s.media.URL)
		}
		views[i] = SubscriptionView{
			UserView:     ProjectUser(&authors[i], true, s.media.URL),
			Recipes:      minified,
			RecipesCount: count,
		}
	}
	return views, nil
}

func (s *Users) find(ctx context.Context, id uint64) (*db.User, error) {
	user := db.User{}
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, NotFoundError("id", fmt.Sprintf("user %d not found", id))
		}
		return nil, errors.Wrap(err, "find user")
	}
	return &user, nil
}

func bcryptGen(pass string) (string, error) {
	passwordHashB, err := bcrypt.GenerateFromPassword([]byte(pass), passwordCost)
	if err != nil {
		return "", errors.Wrap(err, "generate password hash")
	}
	return string(passwordHashB), nil
}

func bcryptCheck(hash, pass string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pass))
}
