// Package i18n turns machine-readable transport messages into text that can be
// shown to the user. Translations are held in a golang.org/x/text catalog.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys. The keys double as the English text so that an unknown
// locale degrades to the wording of the transport.
const (
	RequestAborted    = "Request aborted"
	NetworkError      = "Network Error"
	RequestFailed     = "Request failed with status code %s"
	TimeoutExceeded   = "timeout of %sms exceeded"
	InvalidServerData = "Server data is invalid. Unable to load data."
)

//nolint:gochecknoglobals // translation table, read only
var french = map[string]string{
	RequestAborted:    "La requête a été interrompue",
	NetworkError:      "Service indisponible (problème de réseau)",
	RequestFailed:     "La requête a échoué avec le code statut %s",
	TimeoutExceeded:   "Délai de %s ms dépassé",
	InvalidServerData: "Les données du serveur sont invalides. Chargement des données impossible.",
}

type Localizer struct {
	tag     language.Tag
	printer *message.Printer
}

// New returns a Localizer for the given BCP 47 locale. French locales get the
// French catalog, any other valid locale gets English, unparsable ones French.
func New(locale string) *Localizer {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.French
	}

	b := catalog.NewBuilder(catalog.Fallback(language.English))

	for key, msg := range french {
		_ = b.SetString(language.French, key, msg)
		_ = b.SetString(language.English, key, key)
	}

	matched := language.English
	if base, _ := tag.Base(); base.String() == "fr" {
		matched = language.French
	}

	return &Localizer{
		tag:     matched,
		printer: message.NewPrinter(matched, message.Catalog(b)),
	}
}

// Language returns the catalog language that was matched for the requested locale.
func (l *Localizer) Language() language.Tag {
	return l.tag
}

// Text renders key. Arguments are substituted verbatim (as strings) so that
// numbers are never regrouped by locale rules.
func (l *Localizer) Text(key string, args ...string) string {
	a := make([]any, len(args))
	for i, v := range args {
		a[i] = v
	}

	return l.printer.Sprintf(key, a...)
}
