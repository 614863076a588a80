// Package language defines the two supported response languages and their
// fixed user-facing texts. Fallback texts are contractual: they must reach
// the user byte-for-byte, so they live here rather than in prompt templates.
package language

// Language is a supported pipeline language.
type Language string

const (
	// EN is English.
	EN Language = "en"
	// FR is French.
	FR Language = "fr"
)

// FromCode maps an ISO 639-1 code to a supported language, defaulting to EN.
func FromCode(code string) Language {
	if code == "fr" {
		return FR
	}
	return EN
}

// String returns the ISO code.
func (l Language) String() string { return string(l) }

// NoInformationFound is the fallback message used when no relevant Q&A pair
// exists for a question.
func (l Language) NoInformationFound() string {
	if l == FR {
		return "Nous ne pouvons pas répondre à cette question pour le moment car aucune information pertinente n'a été trouvée."
	}
	return "We cannot answer this question at this time as no relevant information was found."
}

// CannotAnswer is the fallback message used when validation failed for a
// reason other than an empty corpus match (parse failure, provider error).
func (l Language) CannotAnswer() string {
	if l == FR {
		return "Nous ne pouvons pas répondre à cette question pour le moment."
	}
	return "We cannot answer this question at this time."
}

// Apology is the generic answer returned when generation itself fails.
func (l Language) Apology() string {
	if l == FR {
		return "Désolé, je n'ai pas pu traiter votre demande. Veuillez réessayer."
	}
	return "Sorry, I couldn't process your request. Please try again."
}
