package professional

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Professional is a provider whose calendar the engine guards: the no-overlap
// invariant is enforced per professional per date.
type Professional struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"-"`

	FirstName string `gorm:"column:first_name;type:varchar(100);not null" json:"first_name"`
	LastName  string `gorm:"column:last_name;type:varchar(100);not null" json:"last_name"`
	Specialty string `gorm:"column:specialty;type:varchar(100)" json:"specialty,omitempty"`

	Phone string `gorm:"column:phone;type:varchar(20)" json:"phone,omitempty"`
	Email string `gorm:"column:email;type:varchar(255)" json:"email,omitempty"`

	Status Status `gorm:"column:status;type:varchar(20);default:'active';index" json:"status"`

	CreatedBy *uuid.UUID `gorm:"column:created_by;type:uuid" json:"created_by,omitempty"`
}

func (Professional) TableName() string {
	return "clinical.professionals"
}

func (p *Professional) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

func (p *Professional) IsActive() bool {
	return p.Status == StatusActive && p.DeletedAt == nil
}

type CreateProfessionalCommand struct {
	FirstName string
	LastName  string
	Specialty string
	Phone     string
	Email     string
	CreatedBy *uuid.UUID
}

type ListProfessionalsQuery struct {
	Specialty string
	Status    *Status
	Page      int
	PageSize  int
}

type PagedProfessionals struct {
	Professionals []*Professional
	TotalCount    int64
	Page          int
	PageSize      int
	TotalPages    int
}
