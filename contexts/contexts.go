package contexts

import (
	"github.com/google/uuid"
	"github.com/labstack/echo"

	"github.com/novonordisk-research/vcf-parser/models"
	"github.com/novonordisk-research/vcf-parser/services"
)

type (
	// "Helper" Context to pass into routes that need
	// the configuration and per-request run options
	AppContext struct {
		echo.Context
		Config    *models.Config
		RequestId uuid.UUID
		Options   services.RunOptions
	}
)
