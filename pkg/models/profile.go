package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Role is the role a profile holds inside its company.
type Role string

const (
	RoleCompanyAdmin Role = "company_admin"
	RoleTechnician   Role = "technician"
	RoleClientUser   Role = "client_user"
	RoleSystemOwner  Role = "system_owner"
)

// IsStaff reports whether the role belongs to the helpdesk staff. Every role
// except client_user is staff.
func (r Role) IsStaff() bool {
	return r != RoleClientUser
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleCompanyAdmin, RoleTechnician, RoleClientUser, RoleSystemOwner:
		return true
	}
	return false
}

// Profile is the application-side identity of an authenticated user. Its ID is
// the user ID issued by the identity service.
type Profile struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	CompanyID *string   `gorm:"type:uuid;index" json:"companyId,omitempty"`
	FullName  string    `json:"fullName"`
	Role      Role      `gorm:"type:varchar(32);not null;default:'client_user'" json:"role"`
	Active    bool      `gorm:"not null" json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Company *Company `gorm:"foreignKey:CompanyID" json:"-"`
}

// TableName returns the table name for GORM.
func (Profile) TableName() string {
	return "profiles"
}

// DisplayName returns the full name, or the user ID when no name is set.
func (p Profile) DisplayName() string {
	if p.FullName != "" {
		return p.FullName
	}
	return p.ID
}

// Profiles is a slice of profiles.
type Profiles []Profile

// FindByIDs finds all profiles with the given IDs.
func (p *Profiles) FindByIDs(db *gorm.DB, ids []string) error {
	if len(ids) == 0 {
		*p = Profiles{}
		return nil
	}
	if err := db.Where("id IN ?", ids).Find(p).Error; err != nil {
		return fmt.Errorf("error finding profiles: %w", err)
	}
	return nil
}

// FindActiveStaff finds the active company_admin and technician profiles of a
// company.
func (p *Profiles) FindActiveStaff(db *gorm.DB, companyID string) error {
	if err := db.
		Where("company_id = ?", companyID).
		Where("active = ?", true).
		Where("role IN ?", []Role{RoleCompanyAdmin, RoleTechnician}).
		Find(p).Error; err != nil {
		return fmt.Errorf("error finding company staff: %w", err)
	}
	return nil
}
