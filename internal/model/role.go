package model

// Role groups privileges for assignment. A user gets the privileges of their
// role at creation time; per-user overrides go through user_privileges.
type Role struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Code        string      `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name        string      `gorm:"type:varchar(100)" json:"name"`
	Description string      `gorm:"type:text" json:"description"`
	Privileges  []Privilege `gorm:"many2many:role_privileges;" json:"privileges,omitempty"`
}

const (
	RoleMasterAdmin = "MASTER_ADMIN"
	RoleAdmin       = "ADMIN"
	RoleOperator    = "OPERATOR"
)

// DefaultRoles is seeded on startup when the roles table is missing entries.
var DefaultRoles = []Role{
	{
		Code:        RoleMasterAdmin,
		Name:        "Master Administrator",
		Description: "Full access including user and privilege management",
	},
	{
		Code:        RoleAdmin,
		Name:        "Administrator",
		Description: "Full sales and inventory access, no user management",
	},
	{
		Code:        RoleOperator,
		Name:        "Sales Operator",
		Description: "Day-to-day order entry and stock movements",
	},
}
