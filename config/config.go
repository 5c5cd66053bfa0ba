// Package config is for app wide settings that are unmarshalled
// from Viper (see: /cmd)
package config

import (
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// DesignConfig is settings for candidate generation, filtering and ranking
type DesignConfig struct {
	// the width of the candidate window in bases
	Window int `mapstructure:"window" validate:"gte=15,lte=30"`

	// the number of top-scored candidates kept ahead of off-target
	// screening, to bound the number of remote calls
	TopScored int `mapstructure:"top-scored" validate:"gte=1"`

	// the maximum number of candidates in the final shortlist
	Shortlist int `mapstructure:"shortlist" validate:"gte=1"`

	// the hard lower bound on candidate GC percentage
	GCMin float64 `mapstructure:"gc-min" validate:"gte=0,lte=100"`

	// the hard upper bound on candidate GC percentage
	GCMax float64 `mapstructure:"gc-max" validate:"gte=0,lte=100,gtefield=GCMin"`

	// the GC percentage candidates are ranked towards on score ties
	GCTarget float64 `mapstructure:"gc-target" validate:"gte=0,lte=100"`

	// whether an UNKNOWN off-target verdict discards a candidate.
	// off by default: a conservative local screen has already run
	Strict bool `mapstructure:"strict"`
}

// EntrezConfig is settings for the NCBI sequence fetch
type EntrezConfig struct {
	// the base URL of the efetch endpoint
	URL string `mapstructure:"url" validate:"required,url"`

	// contact email sent with every request, per NCBI usage policy
	Email string `mapstructure:"email" validate:"omitempty,email"`

	// the tool name sent with every request
	Tool string `mapstructure:"tool"`

	// optional NCBI API key for the higher request-rate tier
	APIKey string `mapstructure:"api-key"`

	// timeout for a single fetch
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// BlastConfig is settings for the remote off-target screen
type BlastConfig struct {
	// the base URL of the BLAST CGI endpoint
	URL string `mapstructure:"url" validate:"required,url"`

	// search program, blastn for short nucleotide queries
	Program string `mapstructure:"program"`

	// the database searched, refseq_rna to stay within transcripts
	Database string `mapstructure:"database"`

	// word size for the seed match; small because queries are short
	WordSize int `mapstructure:"word-size" validate:"gte=4"`

	// E-value cutoff; permissive so near-matches of a 19-mer surface
	Expect float64 `mapstructure:"expect" validate:"gt=0"`

	// the maximum number of alignments requested
	HitListSize int `mapstructure:"hitlist-size" validate:"gte=1"`

	// an alignment with at least this many identities over at least
	// MinAlignLen bases counts as an off-target hit
	MinIdentity int `mapstructure:"min-identity" validate:"gte=1"`

	// minimum aligned length for an alignment to count
	MinAlignLen int `mapstructure:"min-align-len" validate:"gte=1"`

	// how often a submitted search is polled for completion
	PollInterval time.Duration `mapstructure:"poll-interval" validate:"gt=0"`

	// end to end bound on a single candidate's screen
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`

	// the number of candidates screened concurrently
	Workers int `mapstructure:"workers" validate:"gte=1,lte=16"`
}

// Config is the root-level settings struct and is a mix of settings
// available in .sirna.yaml, environment variables and command line flags
type Config struct {
	// log progress while the pipeline runs
	Verbose bool `mapstructure:"verbose"`

	// candidate design settings
	Design DesignConfig `mapstructure:"design"`

	// NCBI efetch settings
	Entrez EntrezConfig `mapstructure:"entrez"`

	// NCBI BLAST settings
	Blast BlastConfig `mapstructure:"blast"`
}

// SetDefaults registers the reference design values with viper. Called
// before viper reads the settings file so file/env/flag values win.
func SetDefaults() {
	viper.SetDefault("design.window", 19)
	viper.SetDefault("design.top-scored", 50)
	viper.SetDefault("design.shortlist", 10)
	viper.SetDefault("design.gc-min", 25.0)
	viper.SetDefault("design.gc-max", 55.0)
	viper.SetDefault("design.gc-target", 40.0)
	viper.SetDefault("design.strict", false)

	viper.SetDefault("entrez.url", "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/efetch.fcgi")
	viper.SetDefault("entrez.tool", "sirna")
	viper.SetDefault("entrez.timeout", 30*time.Second)

	// the NCBI credentials default to empty but still need registering:
	// Unmarshal only visits registered keys, so an email or api key set
	// through SIRNA_* env vars would otherwise be dropped
	viper.SetDefault("entrez.email", "")
	viper.SetDefault("entrez.api-key", "")

	viper.SetDefault("blast.url", "https://blast.ncbi.nlm.nih.gov/Blast.cgi")
	viper.SetDefault("blast.program", "blastn")
	viper.SetDefault("blast.database", "refseq_rna")
	viper.SetDefault("blast.word-size", 7)
	viper.SetDefault("blast.expect", 1000.0)
	viper.SetDefault("blast.hitlist-size", 50)
	viper.SetDefault("blast.min-identity", 16)
	viper.SetDefault("blast.min-align-len", 17)
	viper.SetDefault("blast.poll-interval", 15*time.Second)
	viper.SetDefault("blast.timeout", 5*time.Minute)
	viper.SetDefault("blast.workers", 2)
}

// New returns a new Config struct populated by Viper settings (either
// from the local .sirna.yaml) and/or command line arguments
func New() *Config {
	SetDefaults()

	var c Config
	if err := viper.Unmarshal(&c); err != nil {
		log.Fatalf("unable to decode settings into struct, %v", err)
	}

	if err := c.Validate(); err != nil {
		log.Fatalf("invalid settings: %v", err)
	}

	return &c
}

// Validate checks the settings against their declared bounds.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	return nil
}

// LocalIdentity is the number of identical positions at which two
// windows of Window bases are considered near-identical during the
// local redundancy screen. 16-of-19 in the reference design, scaled
// proportionally for other window widths.
func (d DesignConfig) LocalIdentity() int {
	return (d.Window*16 + 18) / 19
}
