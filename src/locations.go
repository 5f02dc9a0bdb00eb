package samealert

/*------------------------------------------------------------------
 *
 * Purpose:	Turn SAME location codes into place names.
 *
 * Description:	A location code is PSSCCC: the SS+CCC digits are the
 *		state and county FIPS code and P subdivides the county
 *		by compass point (0 means the whole county).  The
 *		code-to-county table ships embedded in the binary, one
 *		"0SSCCC,county,state" line per county; codes missing
 *		from the table degrade to the raw digits.
 *
 *----------------------------------------------------------------*/

import (
	_ "embed"
	"encoding/csv"
	"fmt"
	"strings"
)

//go:embed sameCodes.csv
var sameCodesCSV string

// The national-level location code addresses every county at once.
const nationalLocation = "000000"

// Subdivision digit to compass point, per the NWS SAME/ENZ tables.
var subdivisionNames = [10]string{
	"", "Northwest ", "North ", "Northeast ", "West ",
	"Central ", "East ", "Southwest ", "South ", "Southeast ",
}

type countyEntry struct {
	County string
	State  string
}

// LocationTable maps 0SSCCC keys to county names.
type LocationTable struct {
	byCode map[string]countyEntry
}

// LoadLocationTable parses the embedded county table.
func LoadLocationTable() (*LocationTable, error) {
	var rdr = csv.NewReader(strings.NewReader(sameCodesCSV))
	rdr.FieldsPerRecord = 3

	records, err := rdr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("location table: %w", err)
	}

	var t = &LocationTable{byCode: make(map[string]countyEntry, len(records))}
	for _, rec := range records {
		t.byCode[rec[0]] = countyEntry{County: rec[1], State: rec[2]}
	}
	return t, nil
}

// Describe renders one PSSCCC code as a human readable place,
// e.g. "Northwest Polk".  ok is false when the county is not in the
// table.
func (t *LocationTable) Describe(code string) (string, bool) {
	if len(code) != 6 {
		return "", false
	}

	// County lookups ignore the subdivision digit: the table is
	// keyed by a leading zero plus the five FIPS digits.
	entry, ok := t.byCode["0"+code[1:]]
	if !ok {
		return "", false
	}

	var prefix string
	if d := code[0]; d >= '0' && d <= '9' {
		prefix = subdivisionNames[d-'0']
	}
	return prefix + entry.County, true
}

// IsNational reports whether the alert addresses the entire country.
func IsNational(a *Alert) bool {
	for _, code := range a.LocationCodes {
		if code == nationalLocation {
			return true
		}
	}
	return false
}
