package patient

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of a patient record.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Patient is the narrow record the scheduling engine needs: identity plus the
// contact data assembled into notification payloads. Clinical history lives
// outside this service.
type Patient struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"-"`

	FirstName string `gorm:"column:first_name;type:varchar(100);not null" json:"first_name"`
	LastName  string `gorm:"column:last_name;type:varchar(100);not null" json:"last_name"`

	Phone string `gorm:"column:phone;type:varchar(20)" json:"phone,omitempty"`
	Email string `gorm:"column:email;type:varchar(255)" json:"email,omitempty"`

	Status Status `gorm:"column:status;type:varchar(20);default:'active';index" json:"status"`
	Notes  string `gorm:"column:notes;type:text" json:"notes,omitempty"`

	CreatedBy *uuid.UUID `gorm:"column:created_by;type:uuid" json:"created_by,omitempty"`
}

func (Patient) TableName() string {
	return "clinical.patients"
}

func (p *Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

func (p *Patient) IsActive() bool {
	return p.Status == StatusActive && p.DeletedAt == nil
}

type CreatePatientCommand struct {
	FirstName string
	LastName  string
	Phone     string
	Email     string
	Notes     string
	CreatedBy *uuid.UUID
}

type ListPatientsQuery struct {
	Search   string
	Status   *Status
	Page     int
	PageSize int
}

type PagedPatients struct {
	Patients   []*Patient
	TotalCount int64
	Page       int
	PageSize   int
	TotalPages int
}
