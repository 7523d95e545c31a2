package domain

// Well-known tariff keys read by the billing calculator.
const (
	KeyRepasMidi          = "REPAS_MIDI"
	KeyPeriscolaireSeance = "PERISCOLAIRE_SEANCE"

	KeyInscriptionPremiereAnnee        = "INSCRIPTION_PREMIERE_ANNEE"
	KeyInscriptionPremiereAnneeFratrie = "INSCRIPTION_PREMIERE_ANNEE_FRATRIE"
	KeyReinscription                   = "REINSCRIPTION"
	KeyReinscriptionFratrie            = "REINSCRIPTION_FRATRIE"

	KeyFraisMateriel = "FRAIS_MATERIEL"

	FratrieSuffix = "_FRATRIE"
)

// TuitionKey builds SCOLARITE_<LEVEL>_<FREQUENCY>[_FRATRIE].
func TuitionKey(level, frequency string, sibling bool) string {
	key := "SCOLARITE_" + level + "_" + frequency
	if sibling {
		key += FratrieSuffix
	}
	return key
}
