package report

import (
	"os"
	"strings"

	"license-portal/utils"
)

// Schema describes which optional registration columns the export
// carries. It replaces per-run column probing: resolved once at
// startup from the environment and passed to the job by value.
type Schema struct {
	Version  int
	Optional []string
}

var knownOptional = []string{"company", "address", "city"}

// ResolveSchema reads REPORT_SCHEMA_VERSION and REPORT_OPTIONAL_FIELDS
// (comma separated subset of company,address,city). Unknown names are
// dropped; an unset list means all optional columns.
func ResolveSchema() Schema {
	s := Schema{Version: utils.EnvInt("REPORT_SCHEMA_VERSION", 1)}

	raw := os.Getenv("REPORT_OPTIONAL_FIELDS")
	if raw == "" {
		s.Optional = append(s.Optional, knownOptional...)
		return s
	}

	for _, field := range strings.Split(raw, ",") {
		field = strings.ToLower(strings.TrimSpace(field))
		for _, known := range knownOptional {
			if field == known {
				s.Optional = append(s.Optional, field)
				break
			}
		}
	}
	return s
}

func (s Schema) Has(field string) bool {
	for _, f := range s.Optional {
		if f == field {
			return true
		}
	}
	return false
}
