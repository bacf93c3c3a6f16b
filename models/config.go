package models

import "time"

type Config struct {
	Debug bool `envconfig:"VCFX_DEBUG" yaml:"debug"`

	Run struct {
		Threads          int           `envconfig:"VCFX_THREADS" yaml:"threads"`
		QueueSize        int           `envconfig:"VCFX_QUEUE_SIZE" default:"1024" yaml:"queueSize"`
		Fields           string        `envconfig:"VCFX_FIELDS" default:"CSQ" yaml:"fields"`
		FieldsJoin       string        `envconfig:"VCFX_FIELDS_JOIN" default:"Feature" yaml:"fieldsJoin"`
		OutputFormat     string        `envconfig:"VCFX_OUTPUT_FORMAT" default:"tsv" yaml:"outputFormat"`
		DuplicateKeys    string        `envconfig:"VCFX_DUPLICATE_KEYS" default:"last" yaml:"duplicateKeys"`
		Ordered          bool          `envconfig:"VCFX_ORDERED" yaml:"ordered"`
		Strict           bool          `envconfig:"VCFX_STRICT" yaml:"strict"`
		MaxDiagnostics   int           `envconfig:"VCFX_MAX_DIAGNOSTICS" default:"100" yaml:"maxDiagnostics"`
		ProgressInterval time.Duration `envconfig:"VCFX_PROGRESS_INTERVAL" default:"0s" yaml:"progressInterval"`
		Sink             string        `envconfig:"VCFX_SINK" default:"stdout" yaml:"sink"`
	} `yaml:"run"`

	Api struct {
		Port         string `envconfig:"VCFX_API_PORT" default:"5000" yaml:"port"`
		MaxBodyBytes int64  `envconfig:"VCFX_API_MAX_BODY_BYTES" default:"268435456" yaml:"maxBodyBytes"`
	} `yaml:"api"`

	Elasticsearch struct {
		Url        string `envconfig:"VCFX_ES_URL" default:"http://localhost:9200" yaml:"url"`
		Username   string `envconfig:"VCFX_ES_USERNAME" yaml:"username"`
		Password   string `envconfig:"VCFX_ES_PASSWORD" yaml:"password"`
		Index      string `envconfig:"VCFX_ES_INDEX" default:"variants" yaml:"index"`
		Workers    int    `envconfig:"VCFX_ES_WORKERS" default:"2" yaml:"workers"`
		FlushBytes int    `envconfig:"VCFX_ES_FLUSH_BYTES" default:"5000000" yaml:"flushBytes"`
	} `yaml:"elasticsearch"`
}
