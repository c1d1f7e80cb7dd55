// Copyright (C) 2026 Ryo Murata
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package config loads detection settings from YAML files.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rmurata/crclean/internal/cr"
)

// Detection and image calibration settings. Background and Noise are
// optional; when absent they are estimated from the image histogram.
type Config struct {
	Detect struct {
		MinSigma   float32 `yaml:"minSigma"`
		MinE       float32 `yaml:"minE"`
		EPerDN     float32 `yaml:"ePerDN"`
		Cond3Fac   float32 `yaml:"cond3Fac"`
		Cond3Fac2  float32 `yaml:"cond3Fac2"`
		Iterations int32   `yaml:"iterations"`
		Keep       bool    `yaml:"keep"`
	} `yaml:"detect"`

	PSF struct {
		Model  string    `yaml:"model"`
		Params []float64 `yaml:"params"`
	} `yaml:"psf"`

	Image struct {
		Background *float32 `yaml:"background"`
		Noise      *float32 `yaml:"noise"`
		SatLevel   float32  `yaml:"satLevel"`
	} `yaml:"image"`
}

// Default returns the stock settings for a typical CCD mosaic
func Default() *Config {
	c := &Config{}
	c.Detect.MinSigma = 6
	c.Detect.MinE = 150
	c.Detect.EPerDN = 2.2
	c.Detect.Cond3Fac = 2.5
	c.Detect.Cond3Fac2 = 0.6
	c.Detect.Iterations = 3
	c.PSF.Model = "dgauss"
	c.PSF.Params = []float64{1.5, 3.0, 0.1}
	c.Image.SatLevel = 60000
	return c
}

// DetectParams converts the detect section into detection parameters
func (c *Config) DetectParams() cr.Params {
	return cr.Params{
		MinSigma:  c.Detect.MinSigma,
		MinE:      c.Detect.MinE,
		EPerDN:    c.Detect.EPerDN,
		Cond3Fac:  c.Detect.Cond3Fac,
		Cond3Fac2: c.Detect.Cond3Fac2,
		NIter:     c.Detect.Iterations,
		Keep:      c.Detect.Keep,
	}
}

// Load reads a YAML settings file on top of the defaults
func Load(fileName string) (*Config, error) {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return nil, fmt.Errorf("reading settings %s: %w", fileName, err)
	}
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parsing settings %s: %w", fileName, err)
	}
	return c, nil
}
