package customers

import (
	"strings"
	"time"

	"github.com/angelmondragon/orderledger-backend/pkg/db/models"
)

// Profile holds the editable fields of a customer record.
type Profile struct {
	Representative string `json:"representative"`
	CompanyName    string `json:"company_name" validate:"required"`
	TaxID          string `json:"tax_id"`
	Address        string `json:"address"`
	Phone          string `json:"phone"`
	Email          string `json:"email" validate:"omitempty,email"`
}

// UpsertRequest is the body of the customer record upsert.
type UpsertRequest struct {
	Username string `json:"username"`
	Profile
}

// CustomerDTO is the record as returned to clients.
type CustomerDTO struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	Representative string    `json:"representative"`
	CompanyName    string    `json:"company_name"`
	TaxID          string    `json:"tax_id"`
	Address        string    `json:"address"`
	Phone          string    `json:"phone"`
	Email          string    `json:"email"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UpsertResult reports the saved record and whether it was created.
type UpsertResult struct {
	Message    string       `json:"message"`
	CustomerID int64        `json:"customer_id"`
	Created    bool         `json:"created"`
	Customer   *CustomerDTO `json:"customer"`
}

// CompletenessDTO answers the check-cadastro call.
type CompletenessDTO struct {
	CadastroFilled bool  `json:"cadastro_filled"`
	CustomerID     int64 `json:"customer_id"`
}

func (p Profile) normalized() Profile {
	return Profile{
		Representative: strings.TrimSpace(p.Representative),
		CompanyName:    strings.TrimSpace(p.CompanyName),
		TaxID:          strings.TrimSpace(p.TaxID),
		Address:        strings.TrimSpace(p.Address),
		Phone:          strings.TrimSpace(p.Phone),
		Email:          strings.ToLower(strings.TrimSpace(p.Email)),
	}
}

func (p Profile) columns() map[string]any {
	return map[string]any{
		"representative": p.Representative,
		"company_name":   p.CompanyName,
		"tax_id":         p.TaxID,
		"address":        p.Address,
		"phone":          p.Phone,
		"email":          p.Email,
	}
}

func (p Profile) toModel(username string) *models.Customer {
	return &models.Customer{
		Username:       username,
		Representative: p.Representative,
		CompanyName:    p.CompanyName,
		TaxID:          p.TaxID,
		Address:        p.Address,
		Phone:          p.Phone,
		Email:          p.Email,
	}
}

// FromModel maps a record to its transport shape.
func FromModel(c *models.Customer) *CustomerDTO {
	if c == nil {
		return nil
	}
	return &CustomerDTO{
		ID:             c.ID,
		Username:       c.Username,
		Representative: c.Representative,
		CompanyName:    c.CompanyName,
		TaxID:          c.TaxID,
		Address:        c.Address,
		Phone:          c.Phone,
		Email:          c.Email,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func fromModels(rows []models.Customer) []CustomerDTO {
	out := make([]CustomerDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
