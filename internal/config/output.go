package config

// OutputBackend selects where published files are written.
type OutputBackend string

const (
	BackendFS OutputBackend = "fs"
	BackendS3 OutputBackend = "s3"
)

// OutputConfig represents output configuration.
type OutputConfig struct {
	Directory string        `yaml:"directory,omitempty"`
	BaseURL   string        `yaml:"base_url,omitempty"` // URL prefix assigned to published files
	Backend   OutputBackend `yaml:"backend,omitempty"`
	S3        *S3Config     `yaml:"s3,omitempty"`
}

// S3Config configures an S3-compatible publishing target.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region,omitempty"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl,omitempty"`
}
