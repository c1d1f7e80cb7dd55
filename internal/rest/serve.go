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

// Package rest exposes cosmic ray detection over an HTTP API.
package rest

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rmurata/crclean/internal/config"
	"github.com/rmurata/crclean/internal/cr"
	"github.com/rmurata/crclean/internal/fits"
	"github.com/rmurata/crclean/internal/psf"
)

// Serve runs the HTTP API, listening on 0.0.0.0:8080
func Serve(registry *psf.Registry) error {
	r := gin.Default()
	api := r.Group("/api")
	{
		v1 := api.Group("/v1")
		{
			v1.GET("/ping", getPing)
			v1.POST("/detect", func(c *gin.Context) { postDetect(c, registry) })
		}
	}
	return r.Run()
}

func getPing(c *gin.Context) {
	c.JSON(200, gin.H{
		"message": "pong",
	})
}

type postDetectArgs struct {
	FileName   string     `json:"fileName"`
	Background *float32   `json:"background"`
	Noise      *float32   `json:"noise"`
	SatLevel   *float32   `json:"satLevel"`
	PSFModel   string     `json:"psfModel"`
	PSFParams  []float64  `json:"psfParams"`
	Detect     *cr.Params `json:"detect"`
	OutFile    string     `json:"outFile"`
}

type postDetectReply struct {
	FileName   string       `json:"fileName"`
	Background float32      `json:"background"`
	NumRegions int          `json:"numRegions"`
	Regions    []*cr.Region `json:"regions"`
	Log        string       `json:"log"`
}

func postDetect(c *gin.Context, registry *psf.Registry) {
	var args postDetectArgs
	if err := c.ShouldBind(&args); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	defaults := config.Default()
	if args.PSFModel == "" {
		args.PSFModel = defaults.PSF.Model
	}
	if len(args.PSFParams) == 0 {
		args.PSFParams = defaults.PSF.Params
	}
	if args.SatLevel == nil {
		args.SatLevel = &defaults.Image.SatLevel
	}
	params := defaults.DetectParams()
	if args.Detect != nil {
		params = *args.Detect
	}

	sf, err := registry.Create(args.PSFModel, args.PSFParams...)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	f, err := fits.NewImageFromFile(args.FileName, 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	logBuf := &bytes.Buffer{}
	bkgd, err := cr.Prepare(f, args.Background, args.Noise, *args.SatLevel, params.EPerDN, logBuf)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "log": logBuf.String()})
		return
	}

	regions, err := cr.FindCosmicRays(f, sf, bkgd, params, logBuf)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "log": logBuf.String()})
		return
	}

	if args.OutFile != "" {
		if err := f.WriteFile(args.OutFile); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "log": logBuf.String()})
			return
		}
	}

	c.JSON(http.StatusOK, postDetectReply{
		FileName:   args.FileName,
		Background: bkgd,
		NumRegions: len(regions),
		Regions:    regions,
		Log:        logBuf.String(),
	})
}
