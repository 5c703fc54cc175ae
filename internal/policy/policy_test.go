package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shenikar/civic_incident_tracker/internal/models"
)

func TestPolicy_Matrix(t *testing.T) {
	citizen := &models.Principal{ID: 1, Role: models.RoleCitizen}
	admin := &models.Principal{ID: 2, Role: models.RoleAdmin}
	staff := &models.Principal{ID: 3, Role: models.RoleCitizen, IsStaff: true}
	superuser := &models.Principal{ID: 4, Role: models.RoleCitizen, IsSuperuser: true}

	tests := []struct {
		name      string
		principal *models.Principal
		elevated  bool
	}{
		{name: "anonymous", principal: nil, elevated: false},
		{name: "citizen", principal: citizen, elevated: false},
		{name: "unknown role", principal: &models.Principal{ID: 5, Role: "moderator"}, elevated: false},
		{name: "admin", principal: admin, elevated: true},
		{name: "staff", principal: staff, elevated: true},
		{name: "superuser", principal: superuser, elevated: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, Allowed(tt.principal, ActionCreate))
			assert.True(t, Allowed(tt.principal, ActionRead))
			assert.NoError(t, Authorize(tt.principal, ActionRead))
			assert.Equal(t, tt.elevated, Allowed(tt.principal, ActionTransition))
			assert.Equal(t, tt.elevated, Allowed(tt.principal, ActionViewHistory))
			assert.Equal(t, tt.elevated, Allowed(tt.principal, ActionViewDashboard))
		})
	}
}

func TestAuthorize(t *testing.T) {
	assert.ErrorIs(t, Authorize(nil, ActionTransition), models.ErrUnauthenticated)
	assert.ErrorIs(t, Authorize(&models.Principal{ID: 1, Role: models.RoleCitizen}, ActionViewDashboard), models.ErrForbidden)
	assert.NoError(t, Authorize(&models.Principal{ID: 2, Role: models.RoleAdmin}, ActionViewHistory))
	assert.NoError(t, Authorize(nil, ActionCreate))
}

func TestAllowed_UnknownAction(t *testing.T) {
	assert.False(t, Allowed(&models.Principal{ID: 2, Role: models.RoleAdmin}, Action("incident:delete")))
}
