// Package identity models who a session belongs to. A session holds exactly
// one Identity: a staff user or a client-portal user, never both.
package identity

import (
	"encoding/json"
	"errors"
)

type Kind string

const (
	KindStaff  Kind = "staff"
	KindClient Kind = "client"
)

var ErrUnknownKind = errors.New("unknown identity kind")

// Identity is implemented only by Staff and ClientPortal.
type Identity interface {
	Kind() Kind
	SubjectID() string
	isIdentity()
}

// Staff carries a capability cache for UI hints. Guards never decide on it.
type Staff struct {
	UserID      string   `json:"userId"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	RoleID      string   `json:"roleId"`
	RoleName    string   `json:"roleName"`
	Permissions []string `json:"permissions"`
}

func (Staff) Kind() Kind          { return KindStaff }
func (s Staff) SubjectID() string { return s.UserID }
func (Staff) isIdentity()         {}

type ClientPortal struct {
	ClientUserID string `json:"clientUserId"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	ClientID     string `json:"clientId"`
}

func (ClientPortal) Kind() Kind          { return KindClient }
func (c ClientPortal) SubjectID() string { return c.ClientUserID }
func (ClientPortal) isIdentity()         {}

// AsStaff returns the staff identity when id is one.
func AsStaff(id Identity) (Staff, bool) {
	s, ok := id.(Staff)
	return s, ok
}

func AsClient(id Identity) (ClientPortal, bool) {
	c, ok := id.(ClientPortal)
	return c, ok
}

type envelope struct {
	Kind   Kind          `json:"kind"`
	Staff  *Staff        `json:"staff,omitempty"`
	Client *ClientPortal `json:"client,omitempty"`
}

func marshalIdentity(id Identity) ([]byte, error) {
	switch v := id.(type) {
	case Staff:
		return json.Marshal(envelope{Kind: KindStaff, Staff: &v})
	case ClientPortal:
		return json.Marshal(envelope{Kind: KindClient, Client: &v})
	default:
		return nil, ErrUnknownKind
	}
}

func unmarshalIdentity(raw []byte) (Identity, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	switch env.Kind {
	case KindStaff:
		if env.Staff == nil || env.Client != nil {
			return nil, ErrUnknownKind
		}
		return *env.Staff, nil
	case KindClient:
		if env.Client == nil || env.Staff != nil {
			return nil, ErrUnknownKind
		}
		return *env.Client, nil
	default:
		return nil, ErrUnknownKind
	}
}
