package veille

const systemPrompt = "Tu es un assistant de veille sur l'intelligence artificielle pour les référents IA de l'administration publique française. " +
	"Tu réponds en français, avec des sources récentes et vérifiables. " +
	"Tu réponds uniquement avec du JSON valide, sans texte autour."

const questionPrompt = `Propose la question du jour pour un référent IA du secteur public, avec une réponse courte et pédagogique.
Réponds au format : {"question": "...", "answer": "...", "theme": "..."}`

const newsPrompt = `Donne les 5 actualités les plus importantes de la semaine sur l'IA, en priorité celles qui concernent le secteur public en France et en Europe.
Réponds au format : [{"title": "...", "summary": "...", "source": "...", "url": "...", "date": "AAAA-MM-JJ"}]`

const expertsPrompt = `Cite 5 experts francophones de l'IA à suivre pour un référent IA du secteur public.
Réponds au format : [{"name": "...", "role": "...", "organization": "...", "topic": "...", "url": "..."}]`
