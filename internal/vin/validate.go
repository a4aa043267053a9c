package vin

import "regexp"

// Valid VINs are 17 characters from the VIN alphabet: uppercase letters
// and digits excluding I, O and Q.
var vinPattern = regexp.MustCompile(`^[A-HJ-NPR-Z0-9]{17}$`)

func Validate(vin string) (map[string][]string, bool) {
	errs := map[string][]string{}
	if len(vin) != 17 {
		errs["vin"] = append(errs["vin"], "The vin field must be 17 characters.")
	}
	if !vinPattern.MatchString(vin) {
		errs["vin"] = append(errs["vin"], "The vin field format is invalid.")
	}
	if len(errs) > 0 {
		return errs, false
	}
	return nil, true
}
