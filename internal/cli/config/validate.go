package config

import (
	"fmt"
	"slices"
)

var (
	outputFormats = []string{"auto", "text", "markdown", "json", "csv"}
	plotFormats   = []string{"png", "svg", "pdf", "eps", "jpg", "jpeg", "tif", "tiff"}
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !slices.Contains(outputFormats, c.OutputFormat) {
		return fmt.Errorf("invalid output format %q\nHint: Use one of %v", c.OutputFormat, outputFormats)
	}
	if c.Plot.Width <= 0 || c.Plot.Height <= 0 {
		return fmt.Errorf("plot size must be positive, got %gx%g inches", c.Plot.Width, c.Plot.Height)
	}
	if !slices.Contains(plotFormats, c.Plot.Format) {
		return fmt.Errorf("invalid plot format %q\nHint: Use one of %v", c.Plot.Format, plotFormats)
	}
	if c.Source != nil {
		if err := c.Source.Validate(); err != nil {
			return fmt.Errorf("invalid source configuration: %w", err)
		}
	}
	return nil
}
