package chat

import (
	"strings"

	"github.com/referents-ia/portail/internal/profiles"
)

var panelInfo = map[Panel]PanelInfo{
	PanelAssistant: {
		ID:          PanelAssistant,
		Title:       "Assistant IA",
		Description: "Questions générales sur l'IA et sur votre rôle de référent.",
	},
	PanelVeille: {
		ID:          PanelVeille,
		Title:       "Veille IA",
		Description: "Actualités et sources récentes, avec recherche web.",
	},
	PanelSouverain: {
		ID:          PanelSouverain,
		Title:       "Assistant souverain",
		Description: "Modèle hébergé localement, adapté aux sujets sensibles.",
	},
}

var panelPrompts = map[Panel]string{
	PanelAssistant: `Tu es l'assistant du portail des Référents IA de l'administration française.
Tu aides les référents à comprendre l'intelligence artificielle, à accompagner leurs collègues et à conduire des projets responsables.
Réponds en français, de façon claire et structurée. Signale les points de vigilance (RGPD, sécurité, éthique) quand ils sont pertinents.
Si tu ne sais pas, dis-le.`,
	PanelVeille: `Tu es un assistant de veille sur l'intelligence artificielle pour les Référents IA du secteur public.
Appuie-toi sur des sources récentes et cite-les avec leur date.
Réponds en français et distingue clairement les faits établis des annonces.`,
	PanelSouverain: `Tu es un assistant IA souverain, exécuté sur l'infrastructure de l'organisation.
Les échanges peuvent contenir des informations internes : ne les répète pas inutilement.
Réponds en français, de façon concise et précise.`,
}

// systemPrompt returns the panel prompt followed by what is known of the user.
func systemPrompt(panel Panel, p *profiles.Profile) string {
	prompt := panelPrompts[panel]
	if ctx := profileContext(p); ctx != "" {
		prompt += "\n\n" + ctx
	}
	return prompt
}

func profileContext(p *profiles.Profile) string {
	if p == nil {
		return ""
	}
	var parts []string
	if p.FullName != "" {
		parts = append(parts, "Nom : "+p.FullName+".")
	}
	if p.Organization != "" {
		parts = append(parts, "Organisation : "+p.Organization+".")
	}
	if p.JobTitle != "" {
		parts = append(parts, "Fonction : "+p.JobTitle+".")
	}
	if len(parts) == 0 {
		return ""
	}
	return "Profil de l'utilisateur. " + strings.Join(parts, " ")
}
