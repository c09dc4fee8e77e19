package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatgrid/realtime-api/internal/domain/identity"

	apperrors "github.com/chatgrid/realtime-api/internal/errors"
)

func TestAuthorize(t *testing.T) {
	agent := &identity.Identity{ID: "u1", Roles: []string{identity.RoleCommercial}}

	tests := []struct {
		name    string
		id      *identity.Identity
		allowed []string
		check   func(t *testing.T, err error)
	}{
		{
			name:    "empty allow-list is public",
			id:      nil,
			allowed: nil,
			check: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
		},
		{
			name:    "matching role passes",
			id:      agent,
			allowed: []string{identity.RoleCommercial, identity.RoleAdmin},
			check: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
		},
		{
			name:    "one of several roles suffices",
			id:      &identity.Identity{ID: "u2", Roles: []string{identity.RoleVisitor, identity.RoleAdmin}},
			allowed: []string{identity.RoleAdmin},
			check: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
		},
		{
			name:    "no identity is unauthorized",
			id:      nil,
			allowed: []string{identity.RoleCommercial},
			check: func(t *testing.T, err error) {
				require.Error(t, err)
				assert.True(t, apperrors.IsUnauthorized(err))
			},
		},
		{
			name:    "wrong role is forbidden",
			id:      agent,
			allowed: []string{identity.RoleAdmin},
			check: func(t *testing.T, err error) {
				require.Error(t, err)
				assert.True(t, apperrors.IsForbidden(err))
			},
		},
		{
			name:    "identity with no roles is forbidden",
			id:      &identity.Identity{ID: "u3"},
			allowed: []string{identity.RoleVisitor},
			check: func(t *testing.T, err error) {
				require.Error(t, err)
				assert.True(t, apperrors.IsForbidden(err))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, Authorize(tt.id, tt.allowed))
		})
	}
}
