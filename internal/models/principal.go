package models

// Role - роль пользователя у провайдера идентификации
type Role string

const (
	RoleCitizen Role = "citizen"
	RoleAdmin   Role = "admin"
)

// Principal - аутентифицированный пользователь запроса.
// Анонимный запрос представлен nil-указателем.
type Principal struct {
	ID          int64
	Role        Role
	IsStaff     bool
	IsSuperuser bool
}

// UserID возвращает идентификатор пользователя или nil для анонимного запроса
func (p *Principal) UserID() *int64 {
	if p == nil {
		return nil
	}
	id := p.ID
	return &id
}
