package manifest

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// AudioFileRef is a clip as the reader shows it.
type AudioFileRef struct {
	Path        string `json:"path"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

var audioExtension = regexp.MustCompile(`(?i)\.(mp3|wav|ogg|m4a)$`)

var knownNames = map[string]string{
	"chapter_summary_beginning": "Resumen del capítulo (inicio)",
	"chapter_summary_end":       "Resumen del capítulo (final)",
	"section_title":             "Título de sección",
	"location_description":      "Descripción del lugar",
	"dialogue_Glaucón_Sócrates": "Diálogo: Glaucón y Sócrates",
	"Teofrasto_solo":            "Teofrasto (monólogo)",
	"description":               "Descripción",
	"dialogue":                  "Diálogo",
	"narration":                 "Narración",
	"summary":                   "Resumen",
	"intro":                     "Introducción",
	"outro":                     "Conclusión",
	"1-escena":                  "1. Escena",
	"2-conversacion":            "2. Conversación",
	"3-dialogo":                 "3. Diálogo",
	"4-narracion":               "4. Narración",
	"5-resumen":                 "5. Resumen",
	"1-scene":                   "1. Scene",
	"2-conversation":            "2. Conversation",
	"3-dialogue":                "3. Dialogue",
	"4-narration":               "4. Narration",
	"5-summary":                 "5. Summary",
}

// StripAudioExtension removes a trailing .mp3/.wav/.ogg/.m4a, any case.
func StripAudioExtension(name string) string {
	return audioExtension.ReplaceAllString(name, "")
}

// DisplayName turns a clip file name into a label: known names map to fixed
// labels, anything else has underscores replaced and each word capitalized.
func DisplayName(fileName string) string {
	name := StripAudioExtension(fileName)
	if label, ok := knownNames[name]; ok {
		return label
	}
	name = strings.ReplaceAll(name, "_", " ")
	return cases.Title(language.Und, cases.NoLower).String(name)
}

// NewAudioFileRef builds the reference for name inside folder (trailing slash
// included, as returned by types.FolderPath).
func NewAudioFileRef(folder, name string) AudioFileRef {
	return AudioFileRef{
		Path:        folder + name,
		Name:        name,
		DisplayName: DisplayName(name),
	}
}
