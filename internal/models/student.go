package models

import (
	"github.com/go-playground/validator/v10"
)

// Student is one committed registration. RegisterNumber is immutable once
// assigned and unique across the store lifetime. CreatedAt is RFC3339 UTC
// text: fixed width, so lexicographic order matches chronological order in
// both database backends.
type Student struct {
	ID             int64  `db:"id" json:"id"`
	Name           string `db:"name" json:"name" validate:"required"`
	Year           int    `db:"year" json:"year" validate:"required"`
	Section        string `db:"section" json:"section" validate:"required,len=1"`
	RegisterNumber string `db:"register_number" json:"register_number" validate:"required"`
	PhotoPath      string `db:"photo_path" json:"photo_path" validate:"required"`
	SignaturePath  string `db:"signature_path" json:"signature_path"`
	HasDevice      bool   `db:"has_device" json:"has_device"`
	DeviceMAC      string `db:"device_mac" json:"device_mac" validate:"omitempty,mac"`
	CreatedAt      string `db:"created_at" json:"created_at"`
}

func (s *Student) Validate() error {
	validate := validator.New()
	return validate.Struct(s)
}
