package vcf

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/novonordisk-research/vcf-parser/models"
)

const infoColumn = 7

// ParseDataLine splits the fixed columns of a data line; FORMAT and sample
// columns are left unparsed. The raw INFO column is returned separately.
func ParseDataLine(line string, lineNo int64) (*models.VariantRecord, string, error) {
	cols := strings.SplitN(strings.TrimRight(line, "\r"), "\t", infoColumn+2)
	if len(cols) <= infoColumn {
		return nil, "", &models.LineFormatError{Reason: fmt.Sprintf("expected at least 8 tab-separated columns, got %d", len(cols))}
	}

	pos, err := strconv.ParseInt(cols[1], 10, 64)
	if err != nil {
		return nil, "", &models.LineFormatError{Reason: fmt.Sprintf("invalid position %q", cols[1])}
	}

	if n := strings.Count(cols[4], ",") + 1; n > 1 {
		return nil, "", &models.MultiAllelicInputError{Field: "ALT", Count: n}
	}

	qual := models.Missing()
	if cols[5] != "." && cols[5] != "" {
		q, err := strconv.ParseFloat(cols[5], 64)
		if err != nil {
			return nil, "", &models.LineFormatError{Reason: fmt.Sprintf("invalid quality %q", cols[5])}
		}
		qual = models.Float(q).WithRaw(cols[5])
	}

	return &models.VariantRecord{
		Line:   lineNo,
		Chrom:  cols[0],
		Pos:    pos,
		Id:     cols[2],
		Ref:    cols[3],
		Alt:    cols[4],
		Qual:   qual,
		Filter: cols[6],
	}, cols[infoColumn], nil
}
