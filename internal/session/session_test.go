// ABOUTME: Tests for the session store
// ABOUTME: Covers pair replacement, booted monotonicity and change notifications

package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStore_Empty(t *testing.T) {
	s := NewStore()
	snap := s.Snapshot()

	assert.Equal(t, "", snap.Token)
	assert.Nil(t, snap.Identity)
	assert.False(t, snap.Booted)
	assert.False(t, snap.Authenticated())
}

func TestLogin_SetsPair(t *testing.T) {
	s := NewStore()
	s.Login("tok1", Identity{ID: "u1", Email: "a@clinic.uz", Role: RoleAdmin})

	snap := s.Snapshot()
	assert.Equal(t, "tok1", snap.Token)
	require.NotNil(t, snap.Identity)
	assert.Equal(t, "u1", snap.Identity.ID)
	assert.Equal(t, RoleAdmin, snap.Identity.Role)
	assert.Equal(t, "tok1", s.Token())
}

func TestLogin_ReplacesWholePair(t *testing.T) {
	s := NewStore()
	s.Login("tok1", Identity{ID: "u1", Role: RoleDoctor, MustChangePassword: true})
	s.Login("tok2", Identity{ID: "u2", Role: RoleAdmin})

	snap := s.Snapshot()
	assert.Equal(t, "tok2", snap.Token)
	assert.Equal(t, "u2", snap.Identity.ID)
	assert.False(t, snap.Identity.MustChangePassword)
}

func TestLogout_ClearsPair(t *testing.T) {
	s := NewStore()
	s.Login("tok1", Identity{ID: "u1", Role: RoleAdmin})
	s.Logout()

	snap := s.Snapshot()
	assert.Equal(t, "", snap.Token)
	assert.Nil(t, snap.Identity)
}

func TestLoginIf(t *testing.T) {
	s := NewStore()
	assert.True(t, s.LoginIf("", "tok1", Identity{ID: "u1", Role: RoleAdmin}))
	assert.False(t, s.LoginIf("", "tok2", Identity{ID: "u2", Role: RoleDoctor}))
	assert.Equal(t, "tok1", s.Token())

	assert.True(t, s.LoginIf("tok1", "tok3", Identity{ID: "u1", Role: RoleAdmin}))
	assert.Equal(t, "tok3", s.Token())
}

func TestLogoutIf(t *testing.T) {
	s := NewStore()
	s.Login("tok1", Identity{ID: "u1", Role: RoleAdmin})

	assert.False(t, s.LogoutIf("stale"))
	assert.Equal(t, "tok1", s.Token())

	assert.True(t, s.LogoutIf("tok1"))
	assert.Nil(t, s.Identity())
}

func TestSetBooted_NeverReverts(t *testing.T) {
	s := NewStore()
	s.SetBooted(false)
	assert.False(t, s.Booted())

	s.SetBooted(true)
	assert.True(t, s.Booted())

	s.SetBooted(false)
	assert.True(t, s.Booted(), "booted must not revert to false")
}

func TestSnapshot_IsCopy(t *testing.T) {
	s := NewStore()
	s.Login("tok1", Identity{ID: "u1", Role: RoleAdmin})

	snap := s.Snapshot()
	snap.Identity.Role = RoleReception

	assert.Equal(t, RoleAdmin, s.Identity().Role)
}

func TestUpdateIdentity_KeepsToken(t *testing.T) {
	s := NewStore()
	s.Login("tok1", Identity{ID: "u1", Role: RoleDoctor, MustChangePassword: true})
	s.UpdateIdentity(Identity{ID: "u1", Role: RoleDoctor})

	snap := s.Snapshot()
	assert.Equal(t, "tok1", snap.Token)
	assert.False(t, snap.Identity.MustChangePassword)
}

func TestUpdateIdentity_SignedOutIsNoop(t *testing.T) {
	s := NewStore()
	s.UpdateIdentity(Identity{ID: "u1", Role: RoleDoctor})
	assert.Nil(t, s.Identity())
}

func TestSubscribe_ReceivesChanges(t *testing.T) {
	s := NewStore()
	var got []Snapshot
	cancel := s.Subscribe(func(snap Snapshot) {
		got = append(got, snap)
	})

	s.Login("tok1", Identity{ID: "u1", Role: RoleAdmin})
	s.SetBooted(true)
	s.SetBooted(true) // no change, no notification
	s.Logout()
	cancel()
	s.Login("tok2", Identity{ID: "u2", Role: RoleDoctor})

	require.Len(t, got, 3)
	assert.Equal(t, "tok1", got[0].Token)
	assert.True(t, got[1].Booted)
	assert.Nil(t, got[2].Identity)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Login("tok", Identity{ID: "u", Role: RoleAdmin})
		}()
		go func() {
			defer wg.Done()
			snap := s.Snapshot()
			if snap.Identity != nil {
				assert.Equal(t, "tok", snap.Token)
			}
		}()
	}
	wg.Wait()
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"admin", RoleAdmin, false},
		{" Doctor ", RoleDoctor, false},
		{"RECEPTION", RoleReception, false},
		{"nurse", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIdentityValid(t *testing.T) {
	var nilID *Identity
	assert.False(t, nilID.Valid())
	assert.False(t, (&Identity{ID: "", Role: RoleAdmin}).Valid())
	assert.False(t, (&Identity{ID: "u1", Role: "nurse"}).Valid())
	assert.True(t, (&Identity{ID: "u1", Role: RoleDoctor}).Valid())
}
