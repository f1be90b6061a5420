package auth

import (
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/persist"
	"github.com/casbin/casbin/v2/util"
	sqlxadapter "github.com/memwey/casbin-sqlx-adapter"
)

// Role names used as casbin subjects.
const (
	RoleAnonymous = "anonymous"
	RoleAuthor    = "author"
)

// modelText is the RBAC model: a subject, possibly through a role, may use a path pattern with a method.
const modelText = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch2(r.obj, p.obj) && r.act == p.act
`

// NewEnforcer creates and configures a new Casbin enforcer.
// With a MySQL DSN the policies are persisted in the casbin_rule table;
// otherwise they live in memory and are re-seeded on every start.
func NewEnforcer(driverName, dsn string) (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}

	var adapter persist.Adapter
	if driverName == "mysql" {
		adapter = sqlxadapter.NewAdapterFromOptions(&sqlxadapter.AdapterOptions{
			DriverName:     driverName,
			DataSourceName: dsn,
			TableName:      "casbin_rule",
		})
	}

	var enforcer *casbin.Enforcer
	if adapter != nil {
		enforcer, err = casbin.NewEnforcer(m, adapter)
	} else {
		enforcer, err = casbin.NewEnforcer(m)
	}
	if err != nil {
		return nil, err
	}

	// keyMatch2 lets "/posts/:id/edit/" match "/posts/7/edit/".
	enforcer.AddFunction("keyMatch2", util.KeyMatch2Func)

	if adapter != nil {
		if err := enforcer.LoadPolicy(); err != nil {
			return nil, err
		}
	}
	return enforcer, nil
}
