package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NameVariant marks how an item's display name was reduced to its canonical
// form. The display name is recovered with DenormalizeItemName when serving
// queries, so the stored name stays stable across relic upgrades and item
// evolutions.
type NameVariant int16

const (
	VariantNone     NameVariant = 0 // name stored as-is
	VariantUpgraded NameVariant = 1 // relic " Upgrade" suffix stripped
	VariantEvolved  NameVariant = 2 // item "Evolved " prefix stripped
	VariantGreater  NameVariant = 3 // relic "Greater " prefix stripped
)

const (
	upgradeSuffix = " Upgrade"
	evolvedPrefix = "Evolved "
	greaterPrefix = "Greater "
)

// NormalizeItemName strips the known upgrade/evolution naming variants from a
// scraped item name and reports which one was stripped.
func NormalizeItemName(isRelic bool, name string) (string, NameVariant) {
	switch {
	case isRelic && strings.HasSuffix(name, upgradeSuffix):
		return strings.TrimSuffix(name, upgradeSuffix), VariantUpgraded
	case !isRelic && strings.HasPrefix(name, evolvedPrefix):
		return strings.TrimPrefix(name, evolvedPrefix), VariantEvolved
	case isRelic && strings.HasPrefix(name, greaterPrefix):
		return strings.TrimPrefix(name, greaterPrefix), VariantGreater
	default:
		return name, VariantNone
	}
}

// DenormalizeItemName is the inverse of NormalizeItemName.
func DenormalizeItemName(name string, variant NameVariant) string {
	switch variant {
	case VariantUpgraded:
		return name + upgradeSuffix
	case VariantEvolved:
		return evolvedPrefix + name
	case VariantGreater:
		return greaterPrefix + name
	default:
		return name
	}
}

var accentStripper = transform.Chain(
	norm.NFKD,
	runes.Remove(runes.In(unicode.Mn)),
)

// RemoveAccents decomposes s (NFKD) and drops combining marks, so that
// "Zapman" and "Zapmán" collapse to the same player. Input that fails to
// transform is returned unchanged.
func RemoveAccents(s string) string {
	out, _, err := transform.String(accentStripper, s)
	if err != nil {
		return s
	}
	return out
}
