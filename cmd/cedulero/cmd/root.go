package cmd

import (
	"fmt"
	"os"
	"time"

	"cedulero-backend/lib/configutil"
	"cedulero-backend/lib/scrapers/apia"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type Config struct {
	BaseUrl         string           `json:"base_url"`
	SessionsFile    string           `json:"sessions_file"`
	OutputFile      string           `json:"output_file"`
	RunLog          string           `json:"run_log"`
	ValidityMinutes int              `json:"validity_minutes"`
	FieldLayout     apia.FieldLayout `json:"field_layout"`
}

var config Config

var rootCmd = &cobra.Command{
	Use:   "cedulero",
	Short: "cedulero harvests public registry records through captured Apia form sessions.",
}

func Execute() {
	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil && !os.IsNotExist(err) {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}
	config = withDefaults(cfg)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func withDefaults(c Config) Config {
	if c.BaseUrl == "" {
		c.BaseUrl = apia.DefaultBaseUrl
	}
	if c.SessionsFile == "" {
		c.SessionsFile = "sessions.json"
	}
	if c.OutputFile == "" {
		c.OutputFile = "citizens.csv"
	}
	if c.RunLog == "" {
		c.RunLog = "runs.db"
	}
	if c.ValidityMinutes == 0 {
		c.ValidityMinutes = 30
	}
	if (c.FieldLayout == apia.FieldLayout{}) {
		c.FieldLayout = apia.DefaultLayout()
	}
	return c
}

func validityWindow() time.Duration {
	return time.Duration(config.ValidityMinutes) * time.Minute
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}
