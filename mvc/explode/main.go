package explode

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo"

	"github.com/novonordisk-research/vcf-parser/contexts"
	outputFormat "github.com/novonordisk-research/vcf-parser/models/constants/output-format"
	"github.com/novonordisk-research/vcf-parser/models/dtos"
	"github.com/novonordisk-research/vcf-parser/models/dtos/errors"
	"github.com/novonordisk-research/vcf-parser/services"
	"github.com/novonordisk-research/vcf-parser/services/filter"
	"github.com/novonordisk-research/vcf-parser/services/output"
	"github.com/novonordisk-research/vcf-parser/services/schema"
	"github.com/novonordisk-research/vcf-parser/services/sinks"
	"github.com/novonordisk-research/vcf-parser/services/vcf"
	"github.com/novonordisk-research/vcf-parser/utils"
)

const (
	HeaderStats       = "X-Vcf-Parser-Stats"
	HeaderRequestId   = "X-Vcf-Parser-Request-Id"
	maxDiagnosticsLog = 20
)

// Explode runs the full pipeline over the posted VCF body.
func Explode(c echo.Context) error {
	ac := c.(*contexts.AppContext)

	spec := &filter.Spec{}
	if expr := c.QueryParam("filter"); expr != "" {
		compiled, err := filter.CompileExpression(expr)
		if err != nil {
			return filterError(c, err)
		}
		spec = compiled
	}

	sc, closeBody, err := bodyScanner(ac)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errors.CreateSimpleBadRequest(err.Error()))
	}
	defer closeBody()

	header, err := vcf.ReadHeader(sc)
	if err != nil {
		return inputError(c, err)
	}

	svc, err := services.NewProcessingService(header, ac.Options, spec)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errors.CreateSimpleBadRequest(err.Error()))
	}

	var diagnostics bytes.Buffer
	diagnosticLogger := services.NewDiagnosticLogger(&diagnostics, maxDiagnosticsLog)
	svc.OnDiagnostic = diagnosticLogger.Report

	var buf bytes.Buffer
	sink := sinks.NewWriter(&buf)
	runErr := svc.Run(c.Request().Context(), sc, sink)
	if err := sink.Close(); runErr == nil {
		runErr = err
	}

	fmt.Printf("[%s] - Request %s : %s\n", time.Now().Format(time.RFC3339), ac.RequestId, svc.Stats.String())
	if diagnostics.Len() > 0 {
		fmt.Print(diagnostics.String())
	}

	if runErr != nil {
		return inputError(c, runErr)
	}

	c.Response().Header().Set(HeaderStats, svc.Stats.String())
	c.Response().Header().Set(HeaderRequestId, ac.RequestId.String())

	contentType := "text/tab-separated-values; charset=utf-8"
	if ac.Options.Format == outputFormat.Json {
		contentType = "application/x-ndjson"
	}
	return c.Blob(http.StatusOK, contentType, buf.Bytes())
}

// ListColumns answers with every column resolvable for the posted header.
func ListColumns(c echo.Context) error {
	ac := c.(*contexts.AppContext)

	sc, closeBody, err := bodyScanner(ac)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errors.CreateSimpleBadRequest(err.Error()))
	}
	defer closeBody()

	header, err := vcf.ReadHeader(sc)
	if err != nil {
		return inputError(c, err)
	}

	reg, err := schema.NewRegistry(header, ac.Options.Fields, ac.Options.FieldsJoin)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errors.CreateSimpleBadRequest(err.Error()))
	}

	return c.JSON(http.StatusOK, dtos.ColumnsResponseDto{
		Fields:  ac.Options.Fields,
		Columns: output.ListColumns(reg),
	})
}

func bodyScanner(ac *contexts.AppContext) (vcf.LineSource, func(), error) {
	req := ac.Request()
	body := io.ReadCloser(http.MaxBytesReader(ac.Response(), req.Body, ac.Config.Api.MaxBodyBytes))

	in, err := utils.Decompress(body)
	if err != nil {
		return nil, nil, err
	}
	return utils.NewLineScanner(in), func() { in.Close() }, nil
}

func filterError(c echo.Context, err error) error {
	var syntaxErr *filter.FilterSyntaxError
	if stderrors.As(err, &syntaxErr) {
		return c.JSON(http.StatusBadRequest, errors.CreateFilterBadRequest(syntaxErr.Reason, syntaxErr.Fragment, syntaxErr.Offset))
	}
	return c.JSON(http.StatusBadRequest, errors.CreateSimpleBadRequest(err.Error()))
}

func inputError(c echo.Context, err error) error {
	var tooLarge *http.MaxBytesError
	switch {
	case stderrors.As(err, &tooLarge):
		return c.JSON(http.StatusRequestEntityTooLarge, errors.CreateSimpleRequestEntityTooLarge(err.Error()))
	case c.Request().Context().Err() != nil:
		return c.JSON(http.StatusInternalServerError, errors.CreateSimpleInternalServerError(err.Error()))
	}
	return c.JSON(http.StatusBadRequest, errors.CreateSimpleBadRequest(err.Error()))
}
