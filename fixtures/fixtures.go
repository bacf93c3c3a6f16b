// Package fixtures holds VCF snippets, rule documents and configuration
// shared by the package tests.
package fixtures

import (
	"bufio"
	"fmt"
	"os"
	"path"
	"runtime"
	"strings"

	"github.com/novonordisk-research/vcf-parser/models"

	yaml "gopkg.in/yaml.v2"
)

const DemoHeader = "##fileformat=VCFv4.2\n" +
	"##FILTER=<ID=q10,Description=\"Quality below 10\">\n" +
	"##INFO=<ID=AC,Number=A,Type=Integer,Description=\"Allele count in genotypes\">\n" +
	"##INFO=<ID=AF,Number=A,Type=Float,Description=\"Allele Frequency\">\n" +
	"##INFO=<ID=DP,Number=1,Type=Integer,Description=\"Total Depth\">\n" +
	"##INFO=<ID=DB,Number=0,Type=Flag,Description=\"dbSNP membership\">\n" +
	"##INFO=<ID=CADD_PHRED,Number=1,Type=Float,Description=\"CADD PHRED score\">\n" +
	"##INFO=<ID=gnomAD_exome_V4.0_AF,Number=A,Type=Float,Description=\"gnomAD v4.0 exome allele frequency\">\n" +
	"##INFO=<ID=tag,Number=.,Type=String,Description=\"Free text tags, comma separated\">\n" +
	"##INFO=<ID=CSQ,Number=.,Type=String,Description=\"Consequence annotations from Ensembl VEP. Format: Allele|Consequence|IMPACT|SYMBOL|Gene|Feature|CANONICAL|LoF\">\n" +
	"##INFO=<ID=Pangolin,Number=.,Type=String,Description=\"Pangolin splice scores. Format: pangolin_gene|pangolin_transcript|pangolin_max_score\">\n" +
	"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n"

// Data lines of DemoVcf, in order:
//  1. two CSQ transcripts, two Pangolin transcripts, one shared after version stripping
//  2. one CSQ transcript, no Pangolin
//  3. DP fails integer coercion
//  4. multi-allelic ALT
//  5. no annotations at all
var DemoLines = []string{
	"1\t1000\trs1\tA\tT\t50\tPASS\tAC=2;AF=0.003;DP=40;DB;CADD_PHRED=25.1;gnomAD_exome_V4.0_AF=0.0001;tag=a,b;" +
		"CSQ=T|missense_variant|MODERATE|GENE1|ENSG01|ENST0001.5|YES|HC,T|intron_variant|MODIFIER|GENE1|ENSG01|ENST0002.1||;" +
		"Pangolin=ENSG01|ENST0001.4|0.83,ENSG01|ENST0003.2|0.1",
	"1\t2000\t.\tG\tC\t.\tPASS\tAC=1;AF=0.2;DP=12;CADD_PHRED=3.2;CSQ=C|synonymous_variant|LOW|GENE2|ENSG02|ENST0010.1|YES|",
	"2\t3000\trs3\tC\tG\t99\tq10\tAF=0.0001;DP=abc;CSQ=G|stop_gained|HIGH|GENE3|ENSG03|ENST0020.3|YES|HC",
	"2\t4000\t.\tT\tA,G\t30\tPASS\tAF=0.1,0.2;CSQ=A|missense_variant|MODERATE|GENE4|ENSG04|ENST0030.1|YES|",
	"3\t5000\trs5\tG\tA\t10\tPASS\tAF=0.5;DP=8",
}

var DemoVcf = DemoHeader + strings.Join(DemoLines, "\n") + "\n"

// DemoRules keeps high-impact canonical transcripts of rare variants.
const DemoRules = `
AND:
  - name: info.AF
    op: le
    value: 0.01
  - OR:
      - path: CSQ.IMPACT
        op: in
        value: [HIGH, MODERATE]
      - name: info.CADD_PHRED
        operator: ">="
        value: 20
  - name: CSQ.CANONICAL
    op: eq
    value: "YES"
`

// DemoExpression is the inline spelling of DemoRules.
const DemoExpression = `info.AF le 0.01 AND (CSQ.IMPACT in (HIGH, MODERATE) OR info.CADD_PHRED >= 20) AND CSQ.CANONICAL eq "YES"`

func DemoScanner() *bufio.Scanner {
	return bufio.NewScanner(strings.NewReader(DemoVcf))
}

func InitConfig() *models.Config {
	var cfg models.Config

	// get this file's path
	_, filename, _, _ := runtime.Caller(0)
	folderpath := path.Dir(filename)

	f, err := os.Open(fmt.Sprintf("%s/test.config.yml", folderpath))
	if err != nil {
		processError(err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		processError(err)
	}

	return &cfg
}

func processError(err error) {
	fmt.Println(err)
	os.Exit(2)
}
