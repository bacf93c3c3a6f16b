package serviceInfo

import "fmt"

type ServiceInfo string

var (
	SERVICE_NAME        ServiceInfo = "VCF Parser Service"
	SERVICE_WELCOME     ServiceInfo = "Welcome to the VCF parser API! POST a VCF to /explode."
	SERVICE_DESCRIPTION ServiceInfo = "Flattens, joins and filters VEP-style VCF annotations."
	SERVICE_CONTACT     ServiceInfo = "https://github.com/novonordisk-research/vcf-parser"

	SERVICE_ARTIFACT    ServiceInfo = "vcf-parser"
	SERVICE_VERSION     ServiceInfo = "0.3.0"
	SERVICE_TYPE_NO_VER ServiceInfo = ServiceInfo(fmt.Sprintf("com.novonordisk.research:%s", SERVICE_ARTIFACT))
	SERVICE_ID          ServiceInfo = SERVICE_TYPE_NO_VER
	SERVICE_TYPE        ServiceInfo = ServiceInfo(fmt.Sprintf("%s:%s", SERVICE_TYPE_NO_VER, SERVICE_VERSION))
)
