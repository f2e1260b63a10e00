package models

import (
	"time"

	"github.com/google/uuid"
)

// CategoryScope is the entity family a category classifies.
type CategoryScope string

const (
	CategoryFinance  CategoryScope = "FINANCE"
	CategorySupplier CategoryScope = "SUPPLIER"
	CategoryAsset    CategoryScope = "ASSET"
)

// FinanceKind is the direction of money for finance categories.
type FinanceKind string

const (
	FinanceIncome  FinanceKind = "INCOME"
	FinanceExpense FinanceKind = "EXPENSE"
)

// Category classifies documents, suppliers or assets.
type Category struct {
	ID          uuid.UUID
	OrgID       uuid.UUID
	Name        string        `validate:"required,max=100" label:"Name"`
	Scope       CategoryScope `validate:"required,oneof=FINANCE SUPPLIER ASSET" label:"Scope"`
	FinanceKind *FinanceKind  `validate:"omitempty,oneof=INCOME EXPENSE" label:"Kind"` // only for FINANCE scope
	CreatedAt   time.Time
}

// DefaultPayableCategories are offered when an organization has no expense categories yet.
var DefaultPayableCategories = []string{
	"Aluguel",
	"Água",
	"Luz/Energia",
	"Internet/Telefonia",
	"Materiais e Suprimentos",
	"Manutenção e Reparos",
	"Serviços Terceirizados",
	"Transporte",
	"Combustível",
	"Impostos e Taxas",
	"Honorários/Contabilidade",
	"Software/Licenças",
	"Equipamentos",
	"Limpeza",
	"Seguros",
	"Outros",
}

// DefaultReceivableCategories are offered when an organization has no income categories yet.
var DefaultReceivableCategories = []string{
	"Dízimos",
	"Ofertas",
	"Doações",
	"Contribuições",
	"Mensalidades",
	"Campanhas",
	"Eventos",
	"Vendas de Materiais",
	"Aluguéis Recebidos",
	"Reembolsos",
	"Outros",
}
