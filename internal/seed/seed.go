package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	tariffdomain "github.com/montessori/ecole/internal/tariff/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TariffEntry is one rate of the default grid.
type TariffEntry struct {
	Key      string
	Category tariffdomain.Category
	Label    string
	Amount   string
}

// DefaultTariffs is the grid installed on a fresh database.
var DefaultTariffs = []TariffEntry{
	{"SCOLARITE_MATERNELLE_MENSUEL", tariffdomain.CategoryScolarite, "Scolarité maternelle mensuelle", "575.00"},
	{"SCOLARITE_MATERNELLE_MENSUEL_FRATRIE", tariffdomain.CategoryFratrie, "Scolarité maternelle mensuelle fratrie", "540.00"},
	{"SCOLARITE_MATERNELLE_TRIMESTRIEL", tariffdomain.CategoryScolarite, "Scolarité maternelle trimestrielle", "1900.00"},
	{"SCOLARITE_MATERNELLE_TRIMESTRIEL_FRATRIE", tariffdomain.CategoryFratrie, "Scolarité maternelle trimestrielle fratrie", "1785.00"},
	{"SCOLARITE_MATERNELLE_ANNUEL", tariffdomain.CategoryScolarite, "Scolarité maternelle annuelle", "5635.00"},
	{"SCOLARITE_MATERNELLE_ANNUEL_FRATRIE", tariffdomain.CategoryFratrie, "Scolarité maternelle annuelle fratrie", "5292.00"},
	{"SCOLARITE_ELEMENTAIRE_MENSUEL", tariffdomain.CategoryScolarite, "Scolarité élémentaire mensuelle", "710.00"},
	{"SCOLARITE_ELEMENTAIRE_MENSUEL_FRATRIE", tariffdomain.CategoryFratrie, "Scolarité élémentaire mensuelle fratrie", "675.00"},
	{"SCOLARITE_ELEMENTAIRE_TRIMESTRIEL", tariffdomain.CategoryScolarite, "Scolarité élémentaire trimestrielle", "2345.00"},
	{"SCOLARITE_ELEMENTAIRE_TRIMESTRIEL_FRATRIE", tariffdomain.CategoryFratrie, "Scolarité élémentaire trimestrielle fratrie", "2230.00"},
	{"SCOLARITE_ELEMENTAIRE_ANNUEL", tariffdomain.CategoryScolarite, "Scolarité élémentaire annuelle", "6958.00"},
	{"SCOLARITE_ELEMENTAIRE_ANNUEL_FRATRIE", tariffdomain.CategoryFratrie, "Scolarité élémentaire annuelle fratrie", "6615.00"},
	{tariffdomain.KeyRepasMidi, tariffdomain.CategoryRepas, "Repas du midi", "5.45"},
	{tariffdomain.KeyPeriscolaireSeance, tariffdomain.CategoryPeriscolaire, "Séance de périscolaire", "6.50"},
	{tariffdomain.KeyInscriptionPremiereAnnee, tariffdomain.CategoryInscription, "Inscription première année", "350.00"},
	{tariffdomain.KeyInscriptionPremiereAnneeFratrie, tariffdomain.CategoryInscription, "Inscription première année fratrie", "150.00"},
	{tariffdomain.KeyReinscription, tariffdomain.CategoryInscription, "Réinscription", "195.00"},
	{tariffdomain.KeyReinscriptionFratrie, tariffdomain.CategoryInscription, "Réinscription fratrie", "160.00"},
	{tariffdomain.KeyFraisMateriel, tariffdomain.CategoryFonctionnement, "Frais de matériel", "65.00"},
}

// EnsureDefaultTariffs installs the default grid for schoolYear, leaving any
// rate that already exists untouched. It returns the number of rates created.
func EnsureDefaultTariffs(ctx context.Context, db *gorm.DB, node *snowflake.Node, schoolYear string) (int, error) {
	if db == nil {
		return 0, errors.New("seed database handle is required")
	}
	if node == nil {
		return 0, errors.New("seed id generator is required")
	}

	created := 0
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		for _, entry := range DefaultTariffs {
			var count int64
			err := tx.Model(&tariffdomain.Tariff{}).
				Where("rate_key = ? AND school_year = ?", entry.Key, schoolYear).
				Count(&count).Error
			if err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			amount, err := decimal.NewFromString(entry.Amount)
			if err != nil {
				return err
			}
			tariff := tariffdomain.Tariff{
				ID:         node.Generate(),
				Key:        entry.Key,
				SchoolYear: schoolYear,
				Amount:     amount,
				Category:   entry.Category,
				Label:      entry.Label,
				Active:     true,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if err := tx.Create(&tariff).Error; err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}
