package models

import "time"

type UserRole string

const (
	UserRoleTeacher    UserRole = "teacher"
	UserRoleTeamLeader UserRole = "teamLeader"
	UserRoleTeamMember UserRole = "teamMember"
)

// DefaultUserRole is the role preselected on the registration form.
const DefaultUserRole = UserRoleTeacher

func (r UserRole) Valid() bool {
	switch r {
	case UserRoleTeacher, UserRoleTeamLeader, UserRoleTeamMember:
		return true
	default:
		return false
	}
}

// UserAccount is the application's user-role record. Its ID is the identity id
// issued by the auth service, so it is assigned by the caller and never generated.
type UserAccount struct {
	ID        string    `json:"id" gorm:"type:varchar(64);primaryKey"`
	Email     string    `json:"email" gorm:"type:varchar(255);not null;index"`
	Role      UserRole  `json:"role" gorm:"type:varchar(20);not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (UserAccount) TableName() string {
	return "user_accounts"
}
