// Package policy содержит правила доступа к операциям над инцидентами.
// Решения принимаются casbin-энфорсером, собранным один раз из встроенных модели и политики,
// поэтому все проверки - чистые функции от Principal.
package policy

import (
	_ "embed"
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	stringadapter "github.com/casbin/casbin/v2/persist/string-adapter"

	"github.com/shenikar/civic_incident_tracker/internal/models"
)

// Action - действие, доступ к которому проверяется
type Action string

const (
	ActionCreate        Action = "incident:create"
	ActionRead          Action = "incident:read"
	ActionTransition    Action = "incident:transition"
	ActionViewHistory   Action = "history:read"
	ActionViewDashboard Action = "dashboard:read"
)

const (
	subjectAnonymous = "anonymous"
	subjectCitizen   = "citizen"
	subjectAdmin     = "admin"
)

var (
	//go:embed rbac_model.conf
	modelText string
	//go:embed rbac_policy.csv
	policyText string

	enforcer = mustEnforcer()
)

func mustEnforcer() *casbin.Enforcer {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		panic(fmt.Sprintf("policy: invalid rbac model: %v", err))
	}
	e, err := casbin.NewEnforcer(m, stringadapter.NewAdapter(policyText))
	if err != nil {
		panic(fmt.Sprintf("policy: could not build enforcer: %v", err))
	}
	return e
}

// subject сводит Principal к роли в модели доступа.
// Staff и superuser приравниваются к администратору.
func subject(p *models.Principal) string {
	switch {
	case p == nil:
		return subjectAnonymous
	case p.Role == models.RoleAdmin, p.IsStaff, p.IsSuperuser:
		return subjectAdmin
	default:
		return subjectCitizen
	}
}

// Allowed сообщает, разрешено ли действие пользователю
func Allowed(p *models.Principal, act Action) bool {
	ok, err := enforcer.Enforce(subject(p), string(act))
	return err == nil && ok
}

// Authorize возвращает ошибку доступа для запрещенного действия:
// ErrUnauthenticated для анонимного запроса, ErrForbidden для недостаточной роли.
func Authorize(p *models.Principal, act Action) error {
	if Allowed(p, act) {
		return nil
	}
	if p == nil {
		return models.ErrUnauthenticated
	}
	return models.ErrForbidden
}
