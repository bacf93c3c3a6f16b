package serviceInfo

import (
	"net/http"

	"github.com/labstack/echo"

	serviceInfo "github.com/novonordisk-research/vcf-parser/models/constants/service-info"
)

// GA4GH service-info: https://github.com/ga4gh-discovery/ga4gh-service-info
func GetServiceInfo(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"type": map[string]interface{}{
			"artifact": serviceInfo.SERVICE_ARTIFACT,
			"group":    serviceInfo.SERVICE_TYPE_NO_VER,
			"version":  serviceInfo.SERVICE_VERSION,
		},
		"id":          serviceInfo.SERVICE_ID,
		"name":        serviceInfo.SERVICE_NAME,
		"description": serviceInfo.SERVICE_DESCRIPTION,
		"organization": map[string]string{
			"name": "Novo Nordisk Research",
			"url":  "https://github.com/novonordisk-research",
		},
		"contactUrl": serviceInfo.SERVICE_CONTACT,
		"version":    serviceInfo.SERVICE_VERSION,
	})
}
