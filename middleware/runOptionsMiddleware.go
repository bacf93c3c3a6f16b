package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo"

	"github.com/novonordisk-research/vcf-parser/contexts"
	duplicateKeys "github.com/novonordisk-research/vcf-parser/models/constants/duplicate-keys"
	outputFormat "github.com/novonordisk-research/vcf-parser/models/constants/output-format"
	"github.com/novonordisk-research/vcf-parser/models/dtos/errors"
	"github.com/novonordisk-research/vcf-parser/services"
	"github.com/novonordisk-research/vcf-parser/utils"
)

/*
	Echo middleware to validate the run-shaping query parameters
	(`format`, `fields`, `fieldsJoin`, `columns`, `duplicateKeys`, `strict`)
	and store them on the context. Missing parameters fall back to the
	service configuration.
*/
func ValidateRunOptions(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ac := c.(*contexts.AppContext)
		cfg := ac.Config

		format := outputFormat.CastToOutputFormat(queryParamOr(c, "format", cfg.Run.OutputFormat))
		if format == outputFormat.Unknown {
			return c.JSON(http.StatusBadRequest, errors.CreateSimpleBadRequest(
				fmt.Sprintf("Unknown output format %q, use json or tsv", c.QueryParam("format"))))
		}

		fields := utils.SplitCommaList(queryParamOr(c, "fields", cfg.Run.Fields))
		fieldsJoin := utils.SplitCommaList(queryParamOr(c, "fieldsJoin", cfg.Run.FieldsJoin))
		if len(fields) > 1 && len(fields) != len(fieldsJoin) {
			return c.JSON(http.StatusBadRequest, errors.CreateSimpleBadRequest(
				fmt.Sprintf("%d fields but %d fieldsJoin columns, they must pair up", len(fields), len(fieldsJoin))))
		}

		policy := duplicateKeys.CastToDuplicateKeyPolicy(queryParamOr(c, "duplicateKeys", cfg.Run.DuplicateKeys))
		if policy == duplicateKeys.Unknown {
			return c.JSON(http.StatusBadRequest, errors.CreateSimpleBadRequest(
				fmt.Sprintf("Unknown duplicateKeys policy %q, use last, first or reject", c.QueryParam("duplicateKeys"))))
		}

		strict := cfg.Run.Strict
		if qp := c.QueryParam("strict"); qp != "" {
			parsed, err := strconv.ParseBool(qp)
			if err != nil {
				return c.JSON(http.StatusBadRequest, errors.CreateSimpleBadRequest("'strict' must be true or false"))
			}
			strict = parsed
		}

		ac.Options = services.RunOptions{
			Fields:        fields,
			FieldsJoin:    fieldsJoin,
			Columns:       utils.SplitCommaList(c.QueryParam("columns")),
			Format:        format,
			DuplicateKeys: policy,
			Threads:       cfg.Run.Threads,
			QueueSize:     cfg.Run.QueueSize,
			// responses are buffered anyway, keep them deterministic
			Ordered: true,
			Strict:  strict,
		}

		return next(c)
	}
}

func queryParamOr(c echo.Context, name string, fallback string) string {
	if qp := c.QueryParam(name); qp != "" {
		return qp
	}
	return fallback
}
