package outputFormat

import (
	"strings"

	"github.com/novonordisk-research/vcf-parser/models/constants"
)

const (
	Unknown constants.OutputFormat = ""
	Json    constants.OutputFormat = "json"
	Tsv     constants.OutputFormat = "tsv"
)

func CastToOutputFormat(text string) constants.OutputFormat {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "j", "json":
		return Json
	case "t", "tsv":
		return Tsv
	default:
		return Unknown
	}
}
