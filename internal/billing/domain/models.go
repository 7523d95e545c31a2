package domain

import (
	"github.com/shopspring/decimal"
)

type LineType string

const (
	LineScolarite        LineType = "SCOLARITE"
	LineReductionFratrie LineType = "REDUCTION_FRATRIE"
	LineReductionRFR     LineType = "REDUCTION_RFR"
	LineRepas            LineType = "REPAS"
	LinePeriscolaire     LineType = "PERISCOLAIRE"
	LineInscription      LineType = "INSCRIPTION"
	LineMateriel         LineType = "MATERIEL"
	LineAutre            LineType = "AUTRE"
)

func (t LineType) Valid() bool {
	switch t {
	case LineScolarite, LineReductionFratrie, LineReductionRFR, LineRepas,
		LinePeriscolaire, LineInscription, LineMateriel, LineAutre:
		return true
	}
	return false
}

// Line is a priced invoice line. Discounts carry negative amounts.
type Line struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
	Type        LineType        `json:"type"`
	Comment     string          `json:"comment,omitempty"`
}

// NewLine prices quantity × unitPrice rounded half-up to cents.
func NewLine(lineType LineType, description string, quantity, unitPrice decimal.Decimal) Line {
	return Line{
		Description: description,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		Amount:      RoundMoney(quantity.Mul(unitPrice)),
		Type:        lineType,
	}
}

// RoundMoney rounds to two decimals, halves away from zero.
func RoundMoney(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

type TuitionBreakdown struct {
	TariffKey       string          `json:"tariff_key"`
	Rank            int             `json:"rank"`
	Base            decimal.Decimal `json:"base"`
	SiblingDiscount decimal.Decimal `json:"sibling_discount"`
	IncomeDiscount  decimal.Decimal `json:"income_discount"`
	IncomeRate      decimal.Decimal `json:"income_rate"`
	Final           decimal.Decimal `json:"final"`
}

// Totals sums lines into gross charges, discounts and net amount.
type Totals struct {
	Gross     decimal.Decimal `json:"total_gross"`
	Discounts decimal.Decimal `json:"total_discounts"`
	Net       decimal.Decimal `json:"net"`
}

func SumLines(lines []Line) Totals {
	gross := decimal.Zero
	discounts := decimal.Zero
	for _, line := range lines {
		if line.Amount.IsNegative() {
			discounts = discounts.Add(line.Amount.Neg())
			continue
		}
		gross = gross.Add(line.Amount)
	}
	return Totals{Gross: gross, Discounts: discounts, Net: gross.Sub(discounts)}
}
