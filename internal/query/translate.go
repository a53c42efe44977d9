package query

import (
	"sort"

	"github.com/ptero-astro/ptero/internal/emission"
)

// Family is one model type stored in the database.
type Family string

// Model families. The combined family sums the shock and precursor spectra
// inside the database itself.
const (
	FamilyShock             Family = "shock"
	FamilyPrecursor         Family = "precursor"
	FamilyShockAndPrecursor Family = "shock_plus_precursor"
)

// lineColumns translates short line names to column expressions. Doublets
// are summed in SQL.
var lineColumns = map[string]string{
	"Ha":        "emis_VI.HI_6563",
	"Hb":        "emis_VI.HI_4861",
	"OIII_5007": "emis_VI.OIII_5007",
	"NII":       "emis_VI.NII_6548 + emis_VI.NII_6583",
	"SII":       "emis_VI.SII_6716 + emis_VI.SII_6731",
}

// quantityColumns translates derived quantities to full expressions.
var quantityColumns = map[string]string{
	"O23":     "(emis_VI.OII_7320 + emis_VI.OII_7330) / NULLIF(emis_VI.OIII_5007, 0)",
	"S23":     "(emis_VI.SII_6716 + emis_VI.SII_6731 + emis_IR.SIII_9069) / NULLIF(emis_VI.HI_4861, 0)",
	"OIII_Hb": "emis_VI.OIII_5007 / NULLIF(emis_VI.HI_4861, 0)",
	"NII_Ha":  "emis_VI.NII_6583 / NULLIF(emis_VI.HI_6563, 0)",
}

// Lines lists the short line names a ratio axis can use, sorted.
func Lines() []string {
	return sortedKeys(lineColumns)
}

// Quantities lists the derived quantities the database can compute, sorted.
func Quantities() []string {
	return sortedKeys(quantityColumns)
}

func sortedKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func lineColumn(name string) (string, error) {
	expr, ok := lineColumns[name]
	if !ok {
		return "", &emission.LineNotFoundError{Label: name}
	}
	return expr, nil
}
