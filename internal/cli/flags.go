package cli

import (
	"flag"

	"github.com/caura/recon-engine/internal/application/recon"
)

// ReconFlags are the flags for the reconcile command
type ReconFlags struct {
	ConfigFile   string
	ClientMap    string
	Transactions string
	Format       string
	Platform     string
	OutputDir    string
	Verbose      bool
}

// ParseReconFlags parses reconcile flags from the command line
func ParseReconFlags() ReconFlags {
	var flags ReconFlags
	flag.StringVar(&flags.ConfigFile, "config", "", "Configuration file path")
	flag.StringVar(&flags.ClientMap, "client-map", "", "Client registry snapshot (JSON)")
	flag.StringVar(&flags.Transactions, "transactions", "", "Transactions file to reconcile")
	flag.StringVar(&flags.Format, "format", "json", "Transactions file format: json or csv")
	flag.StringVar(&flags.Platform, "platform", "bank", "Platform tag for this run")
	flag.StringVar(&flags.OutputDir, "out", "", "Report output directory (empty = config default)")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")
	flag.Parse()
	return flags
}

// ToRunOptions converts ReconFlags to recon.Options
func (f ReconFlags) ToRunOptions() recon.Options {
	return recon.Options{
		Platform:         f.Platform,
		SourceIdentifier: f.Transactions,
	}
}
