package models

import "time"

// Customer is the company profile ("cadastro") attached to a username.
type Customer struct {
	ID             int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Username       string    `gorm:"column:username;not null;uniqueIndex"`
	Representative string    `gorm:"column:representative;not null;default:''"`
	CompanyName    string    `gorm:"column:company_name;not null;default:''"`
	TaxID          string    `gorm:"column:tax_id;not null;default:''"`
	Address        string    `gorm:"column:address;not null;default:''"`
	Phone          string    `gorm:"column:phone;not null;default:''"`
	Email          string    `gorm:"column:email;not null;default:''"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// IsComplete reports whether the record carries the fields orders need.
func (c Customer) IsComplete() bool {
	return c.CompanyName != ""
}
