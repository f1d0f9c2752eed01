package seed

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"note-board/internal/domain"
)

type fakeRoleStore struct {
	roles    map[string]*domain.Role
	order    []string
	writes   int
	conflict map[string]bool // Create 时模拟并发写入
}

func newFakeRoleStore() *fakeRoleStore {
	return &fakeRoleStore{roles: map[string]*domain.Role{}, conflict: map[string]bool{}}
}

func (s *fakeRoleStore) ExistsByName(_ context.Context, name string) (bool, error) {
	_, ok := s.roles[domain.Normalize(name)]
	return ok, nil
}

func (s *fakeRoleStore) Create(_ context.Context, r *domain.Role) error {
	key := domain.Normalize(r.Name)
	if s.conflict[key] {
		s.roles[key] = &domain.Role{Name: r.Name, NormalizedName: key}
		return fmt.Errorf("%w: role %q", domain.ErrConflict, r.Name)
	}
	if _, ok := s.roles[key]; ok {
		return fmt.Errorf("%w: role %q", domain.ErrConflict, r.Name)
	}
	cp := *r
	s.roles[key] = &cp
	s.order = append(s.order, r.Name)
	s.writes++
	return nil
}

type fakeUserStore struct {
	users     map[string]*domain.User
	passwords map[string]string
	members   map[string]map[string]bool // email -> role set
	writes    int
	failOn    map[string]error
	conflict  map[string]bool
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		users:     map[string]*domain.User{},
		passwords: map[string]string{},
		members:   map[string]map[string]bool{},
		failOn:    map[string]error{},
		conflict:  map[string]bool{},
	}
}

func (s *fakeUserStore) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	u, ok := s.users[domain.Normalize(email)]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *fakeUserStore) Create(_ context.Context, u *domain.User, password string) error {
	key := domain.Normalize(u.Email)
	if err := s.failOn[key]; err != nil {
		return err
	}
	if s.conflict[key] {
		cp := *u
		cp.ID = "other-" + key
		s.users[key] = &cp
		return fmt.Errorf("%w: user %q", domain.ErrConflict, u.Email)
	}
	if _, ok := s.users[key]; ok {
		return fmt.Errorf("%w: user %q", domain.ErrConflict, u.Email)
	}
	u.ID = "id-" + key
	cp := *u
	s.users[key] = &cp
	s.passwords[key] = password
	s.writes++
	return nil
}

func (s *fakeUserStore) AddToRole(_ context.Context, u *domain.User, role string) error {
	if u == nil {
		return fmt.Errorf("%w: user", domain.ErrNotFound)
	}
	key := domain.Normalize(u.Email)
	if _, ok := s.users[key]; !ok {
		return fmt.Errorf("%w: user %q", domain.ErrNotFound, u.Email)
	}
	if s.members[key] == nil {
		s.members[key] = map[string]bool{}
	}
	if !s.members[key][role] {
		s.writes++
	}
	s.members[key][role] = true
	return nil
}

func (s *fakeUserStore) rolesOf(email string) []string {
	var out []string
	for r := range s.members[domain.Normalize(email)] {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

func newTestSeeder(t *testing.T, roles *fakeRoleStore, users *fakeUserStore) *Seeder {
	t.Helper()
	s, err := New(roles, users, Options{Domain: "a.com"}, nil)
	require.NoError(t, err)
	return s
}

func TestNew_RequiresDomain(t *testing.T) {
	_, err := New(newFakeRoleStore(), newFakeUserStore(), Options{Domain: "  "}, nil)
	assert.ErrorIs(t, err, ErrMissingDomain)
}

func TestNew_RequiresStores(t *testing.T) {
	_, err := New(nil, newFakeUserStore(), Options{Domain: "a.com"}, nil)
	assert.Error(t, err)
}

func TestRun_PopulatesEmptyStores(t *testing.T) {
	roles, users := newFakeRoleStore(), newFakeUserStore()
	require.NoError(t, newTestSeeder(t, roles, users).Run(context.Background()))

	assert.Equal(t, Roles, roles.order)
	assert.Len(t, roles.roles, 5)
	for _, r := range roles.roles {
		assert.Empty(t, r.Description)
		assert.Equal(t, domain.Normalize(r.Name), r.NormalizedName)
	}

	require.Len(t, users.users, 5)
	want := map[string]string{
		"administrator@a.com": "administrator@a.com",
		"guest@a.com":         "Guest",
		"anonymous@a.com":     "Anonymous",
		"user@a.com":          "user@a.com",
		"manager@a.com":       "manager@a.com",
	}
	for email, userName := range want {
		u, err := users.FindByEmail(context.Background(), email)
		require.NoError(t, err)
		require.NotNil(t, u, email)
		assert.Equal(t, userName, u.UserName)
		assert.True(t, u.EmailConfirmed, email)
		assert.Equal(t, DefaultPassword, users.passwords[domain.Normalize(email)])
	}
}

func TestRun_Memberships(t *testing.T) {
	roles, users := newFakeRoleStore(), newFakeUserStore()
	require.NoError(t, newTestSeeder(t, roles, users).Run(context.Background()))

	assert.Equal(t, []string{domain.RoleAdministrators, domain.RoleUsers}, users.rolesOf("administrator@a.com"))
	assert.Equal(t, []string{domain.RoleGuests}, users.rolesOf("guest@a.com"))
	assert.Equal(t, []string{domain.RoleGuests}, users.rolesOf("anonymous@a.com"))
	assert.Equal(t, []string{domain.RoleUsers}, users.rolesOf("user@a.com"))
	assert.Equal(t, []string{domain.RoleManagers}, users.rolesOf("manager@a.com"))

	links := 0
	for _, set := range users.members {
		links += len(set)
	}
	assert.Equal(t, 6, links)
}

func TestRun_SecondRunWritesNothing(t *testing.T) {
	roles, users := newFakeRoleStore(), newFakeUserStore()
	s := newTestSeeder(t, roles, users)
	require.NoError(t, s.Run(context.Background()))

	rw, uw := roles.writes, users.writes
	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, rw, roles.writes)
	assert.Equal(t, uw, users.writes)
}

func TestRun_KeepsExistingRecords(t *testing.T) {
	roles, users := newFakeRoleStore(), newFakeUserStore()
	require.NoError(t, roles.Create(context.Background(), &domain.Role{Name: "Users", Description: "custom"}))
	custom := &domain.User{UserName: "admin-custom", Email: "administrator@a.com", Address: "Seoul"}
	require.NoError(t, users.Create(context.Background(), custom, "x"))

	require.NoError(t, newTestSeeder(t, roles, users).Run(context.Background()))

	assert.Equal(t, "custom", roles.roles["USERS"].Description)
	u, _ := users.FindByEmail(context.Background(), "administrator@a.com")
	assert.Equal(t, "admin-custom", u.UserName)
	assert.False(t, u.EmailConfirmed)
	assert.Len(t, roles.roles, 5)
	assert.Len(t, users.users, 5)
	assert.Equal(t, []string{domain.RoleAdministrators, domain.RoleUsers}, users.rolesOf("administrator@a.com"))
}

func TestRun_RoleOrderIndependent(t *testing.T) {
	reversed := append([]string(nil), Roles...)
	sort.Sort(sort.Reverse(sort.StringSlice(reversed)))

	roles := newFakeRoleStore()
	for _, name := range reversed[:3] {
		require.NoError(t, roles.Create(context.Background(), &domain.Role{Name: name}))
	}
	require.NoError(t, newTestSeeder(t, roles, newFakeUserStore()).Run(context.Background()))

	var got []string
	for _, r := range roles.roles {
		got = append(got, r.Name)
	}
	sort.Strings(got)
	want := append([]string(nil), Roles...)
	sort.Strings(want)
	assert.Equal(t, want, got)
}

func TestRun_PropagatesUserCreateFailure(t *testing.T) {
	roles, users := newFakeRoleStore(), newFakeUserStore()
	boom := errors.New("db down")
	users.failOn["MANAGER@A.COM"] = boom

	err := newTestSeeder(t, roles, users).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	for _, key := range []string{"administrator", "guest", "anonymous", "user"} {
		u, _ := users.FindByEmail(context.Background(), key+"@a.com")
		assert.NotNil(t, u, key)
	}
	u, _ := users.FindByEmail(context.Background(), "manager@a.com")
	assert.Nil(t, u)
	assert.Empty(t, users.members, "memberships run after all users")
}

func TestRun_CompletesPartialStore(t *testing.T) {
	roles, users := newFakeRoleStore(), newFakeUserStore()
	users.failOn["MANAGER@A.COM"] = errors.New("db down")
	s := newTestSeeder(t, roles, users)
	require.Error(t, s.Run(context.Background()))

	delete(users.failOn, "MANAGER@A.COM")
	require.NoError(t, s.Run(context.Background()))
	assert.Len(t, users.users, 5)
	assert.Equal(t, []string{domain.RoleManagers}, users.rolesOf("manager@a.com"))
}

func TestRun_ConflictTreatedAsSeeded(t *testing.T) {
	roles, users := newFakeRoleStore(), newFakeUserStore()
	roles.conflict["GUESTS"] = true
	users.conflict["USER@A.COM"] = true

	require.NoError(t, newTestSeeder(t, roles, users).Run(context.Background()))
	assert.Contains(t, roles.roles, "GUESTS")
	u, _ := users.FindByEmail(context.Background(), "user@a.com")
	require.NotNil(t, u)
	assert.Equal(t, "other-USER@A.COM", u.ID)
	assert.Equal(t, []string{domain.RoleUsers}, users.rolesOf("user@a.com"))
}

func TestRun_StoreErrorOnRole(t *testing.T) {
	roles := &erroringRoleStore{err: errors.New("connection refused")}
	s, err := New(roles, newFakeUserStore(), Options{Domain: "a.com"}, nil)
	require.NoError(t, err)
	err = s.Run(context.Background())
	assert.ErrorIs(t, err, roles.err)
}

type erroringRoleStore struct{ err error }

func (s *erroringRoleStore) ExistsByName(context.Context, string) (bool, error) { return false, s.err }
func (s *erroringRoleStore) Create(context.Context, *domain.Role) error         { return s.err }

func TestEmail(t *testing.T) {
	s, err := New(newFakeRoleStore(), newFakeUserStore(), Options{Domain: "@b.org"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "manager@b.org", s.Email("manager"))
}
