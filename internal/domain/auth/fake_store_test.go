package auth

import (
	"context"
	"encoding/json"
	"time"

	"agencyops/internal/domain/identity"
)

type fakeState struct {
	users       map[string]User
	roles       map[string]Role
	clientUsers map[string]ClientUser
	invitations map[string]Invitation
	inviteHash  map[string]string
	resets      map[string]PasswordReset
	resetHash   map[string]string
	rawRoles    map[string][]byte
	rawUsers    map[string][]byte
	employees   map[string]int
}

func (s fakeState) clone() fakeState {
	out := fakeState{
		users:       map[string]User{},
		roles:       map[string]Role{},
		clientUsers: map[string]ClientUser{},
		invitations: map[string]Invitation{},
		inviteHash:  map[string]string{},
		resets:      map[string]PasswordReset{},
		resetHash:   map[string]string{},
		rawRoles:    map[string][]byte{},
		rawUsers:    map[string][]byte{},
		employees:   map[string]int{},
	}
	for k, v := range s.users {
		out.users[k] = v
	}
	for k, v := range s.roles {
		out.roles[k] = v
	}
	for k, v := range s.clientUsers {
		out.clientUsers[k] = v
	}
	for k, v := range s.invitations {
		out.invitations[k] = v
	}
	for k, v := range s.inviteHash {
		out.inviteHash[k] = v
	}
	for k, v := range s.resets {
		out.resets[k] = v
	}
	for k, v := range s.resetHash {
		out.resetHash[k] = v
	}
	for k, v := range s.rawRoles {
		out.rawRoles[k] = v
	}
	for k, v := range s.rawUsers {
		out.rawUsers[k] = v
	}
	for k, v := range s.employees {
		out.employees[k] = v
	}
	return out
}

type fakeStore struct {
	fakeState
	failMarkInvite bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{fakeState: fakeState{}.clone()}
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(Repo) error) error {
	snapshot := f.fakeState.clone()
	if err := fn(f); err != nil {
		f.fakeState = snapshot
		return err
	}
	return nil
}

func (f *fakeStore) addRole(r Role) Role {
	f.roles[r.ID] = r
	raw, _ := json.Marshal(r.Permissions)
	f.rawRoles[r.ID] = raw
	return r
}

func (f *fakeStore) addUser(u User) User {
	f.users[u.ID] = u
	raw, _ := json.Marshal(u.Permissions)
	f.rawUsers[u.ID] = raw
	return u
}

func (f *fakeStore) withRole(u User) User {
	if r, ok := f.roles[u.RoleID]; ok {
		u.RoleName = r.Name
		u.RoleNameAr = r.NameAr
	}
	return u
}

func (f *fakeStore) FindUserByEmail(ctx context.Context, email string) (User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return f.withRole(u), nil
		}
	}
	return User{}, ErrUserNotFound
}

func (f *fakeStore) GetUser(ctx context.Context, id string) (User, error) {
	u, ok := f.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return f.withRole(u), nil
}

func (f *fakeStore) ListUsers(ctx context.Context) ([]User, error) {
	out := []User{}
	for _, u := range f.users {
		out = append(out, f.withRole(u))
	}
	return out, nil
}

func (f *fakeStore) CreateUser(ctx context.Context, u User) error {
	if _, err := f.FindUserByEmail(ctx, u.Email); err == nil {
		return ErrUserExists
	}
	f.addUser(u)
	return nil
}

func (f *fakeStore) updateUser(id string, fn func(*User)) error {
	u, ok := f.users[id]
	if !ok {
		return ErrUserNotFound
	}
	fn(&u)
	f.users[id] = u
	return nil
}

func (f *fakeStore) SetUserActive(ctx context.Context, id string, active bool) error {
	return f.updateUser(id, func(u *User) { u.IsActive = active })
}

func (f *fakeStore) SetUserRole(ctx context.Context, id, roleID string) error {
	return f.updateUser(id, func(u *User) { u.RoleID = roleID })
}

func (f *fakeStore) SetUserPermissions(ctx context.Context, id string, perms []string) error {
	raw, _ := json.Marshal(perms)
	f.rawUsers[id] = raw
	return f.updateUser(id, func(u *User) { u.Permissions = perms })
}

func (f *fakeStore) SetUserPassword(ctx context.Context, id, hash string) error {
	return f.updateUser(id, func(u *User) { u.PasswordHash = hash })
}

func (f *fakeStore) SetPasswordByEmail(ctx context.Context, email, hash string) error {
	u, err := f.FindUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	return f.SetUserPassword(ctx, u.ID, hash)
}

func (f *fakeStore) TouchLastLogin(ctx context.Context, id string) error {
	now := time.Now()
	return f.updateUser(id, func(u *User) { u.LastLogin = &now })
}

func (f *fakeStore) RawUserPermissions(ctx context.Context) (map[string][]byte, error) {
	return f.rawUsers, nil
}

func (f *fakeStore) GetRole(ctx context.Context, id string) (Role, error) {
	r, ok := f.roles[id]
	if !ok {
		return Role{}, ErrRoleNotFound
	}
	return r, nil
}

func (f *fakeStore) FindRoleByName(ctx context.Context, name string) (Role, error) {
	for _, r := range f.roles {
		if r.Name == name {
			return r, nil
		}
	}
	return Role{}, ErrRoleNotFound
}

func (f *fakeStore) ListRoles(ctx context.Context) ([]Role, error) {
	out := []Role{}
	for _, r := range f.roles {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeStore) CreateRole(ctx context.Context, r Role) error {
	f.addRole(r)
	return nil
}

func (f *fakeStore) UpdateRole(ctx context.Context, r Role) error {
	if _, ok := f.roles[r.ID]; !ok {
		return ErrRoleNotFound
	}
	f.addRole(r)
	return nil
}

func (f *fakeStore) DeleteRole(ctx context.Context, id string) error {
	if _, ok := f.roles[id]; !ok {
		return ErrRoleNotFound
	}
	delete(f.roles, id)
	delete(f.rawRoles, id)
	return nil
}

func (f *fakeStore) SetRolePermissions(ctx context.Context, id string, perms []string) error {
	r, ok := f.roles[id]
	if !ok {
		return ErrRoleNotFound
	}
	r.Permissions = perms
	f.addRole(r)
	return nil
}

func (f *fakeStore) RawRolePermissions(ctx context.Context) (map[string][]byte, error) {
	return f.rawRoles, nil
}

func (f *fakeStore) CountUsersWithRole(ctx context.Context, roleID string) (int, error) {
	n := 0
	for _, u := range f.users {
		if u.RoleID == roleID {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) CountEmployeesWithRole(ctx context.Context, roleID string) (int, error) {
	return f.employees[roleID], nil
}

func (f *fakeStore) FindClientUserByEmail(ctx context.Context, email string) (ClientUser, error) {
	for _, c := range f.clientUsers {
		if c.Email == email {
			return c, nil
		}
	}
	return ClientUser{}, ErrClientUserNotFound
}

func (f *fakeStore) GetClientUser(ctx context.Context, id string) (ClientUser, error) {
	c, ok := f.clientUsers[id]
	if !ok {
		return ClientUser{}, ErrClientUserNotFound
	}
	return c, nil
}

func (f *fakeStore) ListClientUsers(ctx context.Context) ([]ClientUser, error) {
	out := []ClientUser{}
	for _, c := range f.clientUsers {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeStore) ClientUserByClient(ctx context.Context, clientID string) (ClientUser, error) {
	for _, c := range f.clientUsers {
		if c.ClientID == clientID {
			return c, nil
		}
	}
	return ClientUser{}, ErrClientUserNotFound
}

func (f *fakeStore) CreateClientUser(ctx context.Context, c ClientUser) error {
	f.clientUsers[c.ID] = c
	return nil
}

func (f *fakeStore) SetClientUserActive(ctx context.Context, id string, active bool) error {
	c, ok := f.clientUsers[id]
	if !ok {
		return ErrClientUserNotFound
	}
	c.IsActive = active
	f.clientUsers[id] = c
	return nil
}

func (f *fakeStore) TouchClientLastLogin(ctx context.Context, id string) error {
	return nil
}

func (f *fakeStore) CreateInvitation(ctx context.Context, inv Invitation, tokenHash string) error {
	f.invitations[inv.ID] = inv
	f.inviteHash[tokenHash] = inv.ID
	return nil
}

func (f *fakeStore) InvitationByToken(ctx context.Context, tokenHash string, now time.Time) (Invitation, error) {
	id, ok := f.inviteHash[tokenHash]
	if !ok {
		return Invitation{}, ErrInvitationInvalid
	}
	inv := f.invitations[id]
	if !inv.ExpiresAt.After(now) {
		return Invitation{}, ErrInvitationInvalid
	}
	return inv, nil
}

func (f *fakeStore) MarkInvitationUsed(ctx context.Context, id string, at time.Time) error {
	if f.failMarkInvite {
		return ErrInvitationUsed
	}
	inv := f.invitations[id]
	inv.UsedAt = &at
	f.invitations[id] = inv
	return nil
}

func (f *fakeStore) CreatePasswordReset(ctx context.Context, reset PasswordReset, tokenHash string) error {
	f.resets[reset.ID] = reset
	f.resetHash[tokenHash] = reset.ID
	return nil
}

func (f *fakeStore) PasswordResetByToken(ctx context.Context, tokenHash string, now time.Time) (PasswordReset, error) {
	id, ok := f.resetHash[tokenHash]
	if !ok {
		return PasswordReset{}, ErrResetInvalid
	}
	r := f.resets[id]
	if !r.ExpiresAt.After(now) {
		return PasswordReset{}, ErrResetInvalid
	}
	return r, nil
}

func (f *fakeStore) MarkPasswordResetUsed(ctx context.Context, id string, at time.Time) error {
	r := f.resets[id]
	r.UsedAt = &at
	f.resets[id] = r
	return nil
}

type fakeSessions struct {
	sessions  map[string]identity.Session
	next      int
	destroyed []string
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: map[string]identity.Session{}}
}

func (f *fakeSessions) Create(ctx context.Context, id identity.Identity) (identity.Session, error) {
	f.next++
	sess := identity.Session{ID: "sess-" + string(rune('a'+f.next)), Identity: id, CreatedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour)}
	f.sessions[sess.ID] = sess
	return sess, nil
}

func (f *fakeSessions) Get(ctx context.Context, sessionID string) (identity.Session, error) {
	sess, ok := f.sessions[sessionID]
	if !ok {
		return identity.Session{}, identity.ErrSessionNotFound
	}
	return sess, nil
}

func (f *fakeSessions) Destroy(ctx context.Context, sessionID string) error {
	delete(f.sessions, sessionID)
	f.destroyed = append(f.destroyed, sessionID)
	return nil
}

func (f *fakeSessions) RefreshStaff(ctx context.Context, sessionID, roleID, roleName string, permissions []string) error {
	return nil
}

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	sent []sentMail
}

func (m *fakeMailer) Send(ctx context.Context, from, to, subject, body string) error {
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}
