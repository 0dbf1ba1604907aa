/*
NAME
  language.go

DESCRIPTION
  language.go implements the 4-byte ASCII language tag used by
  WavResData link records and language_links index entries.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package hx

// Language tags a localized audio link.
type Language uint8

const (
	LanguageUnknown Language = iota
	LanguageDE
	LanguageEN
	LanguageES
	LanguageFR
	LanguageIT
)

var languageCodes = map[Language]string{
	LanguageDE: "de  ",
	LanguageEN: "en  ",
	LanguageES: "es  ",
	LanguageFR: "fr  ",
	LanguageIT: "it  ",
}

// Abbrev returns the two-letter tag used in derived names (e.g. "EN"), or
// "Unknown Language" for LanguageUnknown.
func (l Language) Abbrev() string {
	switch l {
	case LanguageDE:
		return "DE"
	case LanguageEN:
		return "EN"
	case LanguageES:
		return "ES"
	case LanguageFR:
		return "FR"
	case LanguageIT:
		return "IT"
	default:
		return "Unknown Language"
	}
}

// languageFromCode decodes a raw 4-byte ASCII code into a Language tag.
// Any code not in languageCodes decodes to LanguageUnknown, which must
// round-trip as the all-zero code.
func languageFromCode(code string) Language {
	for l, c := range languageCodes {
		if c == code {
			return l
		}
	}
	return LanguageUnknown
}

// languageToCode encodes l as its raw 4-byte ASCII code. LanguageUnknown
// encodes as four zero bytes.
func languageToCode(l Language) string {
	if c, ok := languageCodes[l]; ok {
		return c
	}
	return "\x00\x00\x00\x00"
}
