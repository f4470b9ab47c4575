// Package authz answers "may this actor do this to that resource" using a
// casbin RBAC model: anonymous visitors read, users write what they own,
// superusers write everything.
package authz

import (
	_ "embed"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

const (
	RoleAnonymous = "anonymous"
	RoleUser      = "user"
	RoleAdmin     = "admin"

	ObjectOwn     = "own"
	ObjectForeign = "foreign"

	ActionRead  = "read"
	ActionWrite = "write"
)

type Enforcer struct {
	enforcer *casbin.Enforcer
	logger   *zap.SugaredLogger
}

func NewEnforcer(logger *zap.SugaredLogger) (*Enforcer, error) {
	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, errors.Wrap(err, "load casbin model")
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, errors.Wrap(err, "create casbin enforcer")
	}

	if err := loadPolicy(e, embeddedPolicy); err != nil {
		return nil, err
	}

	return &Enforcer{
		enforcer: e,
		logger:   logger,
	}, nil
}

func loadPolicy(e *casbin.Enforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		var err error
		switch {
		case parts[0] == "p" && len(parts) == 4:
			_, err = e.AddPolicy(parts[1], parts[2], parts[3])
		case parts[0] == "g" && len(parts) == 3:
			_, err = e.AddGroupingPolicy(parts[1], parts[2])
		default:
			err = errors.Errorf("malformed policy line %q", line)
		}
		if err != nil {
			return errors.Wrapf(err, "add policy %q", line)
		}
	}
	return nil
}

// Role maps an actor (nil for anonymous) to a policy subject.
func Role(actor *db.User) string {
	switch {
	case actor == nil:
		return RoleAnonymous
	case actor.IsSuperuser:
		return RoleAdmin
	default:
		return RoleUser
	}
}

func (e *Enforcer) Allowed(actor *db.User, ownerID uint64, action string) bool {
	obj := ObjectForeign
	if actor != nil && actor.ID == ownerID {
		obj = ObjectOwn
	}

	ok, err := e.enforcer.Enforce(Role(actor), obj, action)
	if err != nil {
		e.logger.Errorw("casbin enforce failed", "role", Role(actor), "object", obj, "action", action, "error", err)
		return false
	}
	return ok
}

// CanWrite reports whether actor may modify a resource owned by ownerID.
func (e *Enforcer) CanWrite(actor *db.User, ownerID uint64) bool {
	return e.Allowed(actor, ownerID, ActionWrite)
}
