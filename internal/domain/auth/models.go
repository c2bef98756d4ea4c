package auth

import "time"

type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	NameAr      string    `json:"nameAr"`
	Description string    `json:"description,omitempty"`
	Permissions []string  `json:"permissions"`
	IsSystem    bool      `json:"isSystem"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type RoleInput struct {
	Name        string `json:"name"`
	NameAr      string `json:"nameAr"`
	Description string `json:"description"`
	// Permissions accepts any stored shape and is normalized on write.
	Permissions any `json:"permissions"`
}

type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Name         string     `json:"name"`
	NameEn       string     `json:"nameEn,omitempty"`
	RoleID       string     `json:"roleId,omitempty"`
	RoleName     string     `json:"roleName,omitempty"`
	RoleNameAr   string     `json:"roleNameAr,omitempty"`
	Permissions  []string   `json:"permissions"`
	Department   string     `json:"department,omitempty"`
	EmployeeID   string     `json:"employeeId,omitempty"`
	IsActive     bool       `json:"isActive"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

type ClientUser struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	ClientID     string     `json:"clientId"`
	ClientName   string     `json:"clientName"`
	ClientNameEn string     `json:"clientNameEn,omitempty"`
	IsActive     bool       `json:"isActive"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

type ClientUserInput struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	ClientID     string `json:"clientId"`
	ClientName   string `json:"clientName"`
	ClientNameEn string `json:"clientNameEn"`
}

type Invitation struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	NameEn      string     `json:"nameEn,omitempty"`
	RoleID      string     `json:"roleId"`
	Permissions []string   `json:"permissions"`
	Department  string     `json:"department,omitempty"`
	EmployeeID  string     `json:"employeeId,omitempty"`
	InvitedBy   string     `json:"invitedBy,omitempty"`
	ExpiresAt   time.Time  `json:"expiresAt"`
	UsedAt      *time.Time `json:"usedAt,omitempty"`
}

type InviteInput struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	NameEn      string `json:"nameEn"`
	RoleID      string `json:"roleId"`
	Department  string `json:"department"`
	EmployeeID  string `json:"employeeId"`
	Permissions any    `json:"permissions"`
}

type InviteResult struct {
	InviteLink string    `json:"inviteLink"`
	ExpiresAt  time.Time `json:"expiresAt"`
	EmailQueue bool      `json:"emailQueued"`
}

type PasswordReset struct {
	ID        string
	Email     string
	ExpiresAt time.Time
	UsedAt    *time.Time
}

// StaffProfile is what login and /me return for staff sessions.
type StaffProfile struct {
	ID           string   `json:"id"`
	Email        string   `json:"email"`
	Name         string   `json:"name"`
	NameEn       string   `json:"nameEn,omitempty"`
	Role         string   `json:"role"`
	RoleID       string   `json:"roleId,omitempty"`
	Department   string   `json:"department,omitempty"`
	Permissions  []string `json:"permissions"`
	IsClientUser bool     `json:"isClientUser"`
}

type ClientProfile struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	NameEn       string `json:"nameEn,omitempty"`
	ClientID     string `json:"clientId"`
	IsClientUser bool   `json:"isClientUser"`
}

type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      any       `json:"user"`
}

type EffectivePermissions struct {
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

type UserAccessInput struct {
	RoleID      string `json:"roleId"`
	Permissions any    `json:"permissions"`
}
