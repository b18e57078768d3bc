package recueil

import (
	"strings"
	"time"
)

// NotProvided replaces empty answers in the generated table.
const NotProvided = "Non renseigné"

// Labels are the first-column headings of the recueil table, in order.
var Labels = [9]string{
	"Direction / Service",
	"Porteur du besoin",
	"Intitulé du projet",
	"Contexte",
	"Problématique",
	"Objectifs attendus",
	"Données disponibles",
	"Contraintes (RGPD, sécurité, budget)",
	"Échéance souhaitée",
}

// Form holds the answers of a needs-gathering interview.
type Form struct {
	Direction     string `json:"direction"`
	Porteur       string `json:"porteur"`
	Intitule      string `json:"intitule"`
	Contexte      string `json:"contexte"`
	Problematique string `json:"problematique"`
	Objectifs     string `json:"objectifs"`
	Donnees       string `json:"donnees"`
	Contraintes   string `json:"contraintes"`
	Echeance      string `json:"echeance"`
}

// Submission is a saved form.
type Submission struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Form      Form      `json:"form"`
	CreatedAt time.Time `json:"created_at"`
}

func (f Form) values() [9]string {
	return [9]string{f.Direction, f.Porteur, f.Intitule, f.Contexte, f.Problematique,
		f.Objectifs, f.Donnees, f.Contraintes, f.Echeance}
}

// Rows returns the table rows: each label with its trimmed answer, or
// NotProvided when the answer is blank.
func Rows(f Form) [9][2]string {
	var rows [9][2]string
	for i, v := range f.values() {
		rows[i] = [2]string{Labels[i], orNotProvided(v)}
	}
	return rows
}

func orNotProvided(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return NotProvided
	}
	return v
}

// Empty reports whether no question was answered.
func (f Form) Empty() bool {
	for _, v := range f.values() {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
