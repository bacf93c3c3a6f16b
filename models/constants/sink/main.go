package sink

import (
	"strings"

	"github.com/novonordisk-research/vcf-parser/models/constants"
)

const (
	Unknown       constants.SinkKind = ""
	Stdout        constants.SinkKind = "stdout"
	Elasticsearch constants.SinkKind = "elasticsearch"
)

func CastToSinkKind(text string) constants.SinkKind {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "", "stdout", "-":
		return Stdout
	case "es", "elasticsearch":
		return Elasticsearch
	default:
		return Unknown
	}
}
