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

package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strconv"
	"strings"
	"time"

	"github.com/pbnjay/memory"

	"github.com/rmurata/crclean/internal/config"
	"github.com/rmurata/crclean/internal/cr"
	"github.com/rmurata/crclean/internal/fits"
	"github.com/rmurata/crclean/internal/psf"
	"github.com/rmurata/crclean/internal/rest"
)

const version = "0.1.0"

var totalMiBs = memory.TotalMemory() / 1024 / 1024

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to `file`")
var memprofile = flag.String("memprofile", "", "write memory profile to `file`")

var out        = flag.String("out", "%auto", "save repaired image to `file`. %auto derives <input>_cr.fits")
var tiffOut    = flag.String("tiff", "", "save 16-bit TIFF preview of the repaired image to `file`")
var pngOut     = flag.String("png", "", "save PNG overlay of detected regions to `file`")
var regionsOut = flag.String("regions", "", "save detected regions as JSON to `file`")
var cfgFile    = flag.String("config", "", "load settings from YAML `file`; explicit flags override")

var minSigma  = flag.Float64("minSigma", 6, "detection threshold as multiple of standard deviations; negative for a flat threshold in DN")
var minE      = flag.Float64("minE", 150, "minimum total charge in electrons for a cosmic ray to count")
var ePerDN    = flag.Float64("ePerDN", 2.2, "camera gain in electrons per data number")
var cond3Fac  = flag.Float64("cond3Fac", 2.5, "error bar scaling in the sharpness test")
var cond3Fac2 = flag.Float64("cond3Fac2", 0.6, "point spread function profile scaling in the sharpness test")
var iterations= flag.Int64("iterations", 3, "budget for growing detections into faint wings")
var keep      = flag.Bool("keep", false, "detect and flag only, keeping pixel intensities unchanged")

var bkgd     = flag.Float64("bkgd", 0, "unsubtracted background level in DN; default estimates from the histogram")
var noise    = flag.Float64("noise", 0, "background noise scale in DN; default estimates from the histogram")
var satLevel = flag.Float64("satLevel", 60000, "flag pixels at or above this level as saturated, 0=off")

var psfModel  = flag.String("psf", "dgauss", "point spread function model for the sharpness test")
var psfParams = flag.String("psfParams", "1.5,3.0,0.1", "comma-separated point spread function parameters")

var maxMiB = flag.Int64("maxMiB", int64((totalMiBs*7)/10), "total MiB of memory to use for image processing, default=0.7x physical memory")

func main() {
	logWriter := os.Stdout
	start := time.Now()
	flag.Usage = func() {
		fmt.Fprintf(logWriter, `Crclean Copyright (c) 2026 Ryo Murata
This program comes with ABSOLUTELY NO WARRANTY.
This is free software, and you are welcome to redistribute it under certain conditions.
Refer to https://www.gnu.org/licenses/gpl-3.0.en.html for details.

Usage: %s [-flag value] (detect|serve|version) (img0.fits ... imgn.fits)

Commands:
  detect  Find cosmic ray hits in the input images and repair them
  serve   Offer detection as an HTTP service on port 8080
  version Show version information

Flags:
`, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			fmt.Fprintf(logWriter, "Could not create CPU profile: %s\n", err.Error())
			os.Exit(-1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(logWriter, "Could not start CPU profile: %s\n", err.Error())
			os.Exit(-1)
		}
		defer pprof.StopCPUProfile()
	}

	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		return
	}

	switch args[0] {
	case "detect":
		if err := cmdDetect(args[1:], logWriter); err != nil {
			fmt.Fprintf(logWriter, "Error: %s\n", err.Error())
			os.Exit(-1)
		}

	case "serve":
		if err := rest.Serve(psf.DefaultRegistry()); err != nil {
			fmt.Fprintf(logWriter, "Error: %s\n", err.Error())
			os.Exit(-1)
		}

	case "version":
		fmt.Fprintf(logWriter, "Version %s\n", version)

	case "help", "?":
		flag.Usage()

	default:
		fmt.Fprintf(logWriter, "Unknown command '%s'\n\n", args[0])
		flag.Usage()
		return
	}

	elapsed := time.Now().Sub(start)
	fmt.Fprintf(logWriter, "\nDone after %v\n", elapsed)

	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			fmt.Fprintf(logWriter, "Could not create memory profile: %s\n", err.Error())
			os.Exit(-1)
		}
		defer f.Close()
		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Fprintf(logWriter, "Could not write memory profile: %s\n", err.Error())
			os.Exit(-1)
		}
	}
}

// Combines the settings file, if any, with explicitly given flags, the
// latter taking precedence
func loadSettings() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if *cfgFile != "" {
		if cfg, err = config.Load(*cfgFile); err != nil {
			return nil, err
		}
	} else {
		cfg = config.Default()
	}

	var psfParamsSet bool
	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "minSigma":
			cfg.Detect.MinSigma = float32(*minSigma)
		case "minE":
			cfg.Detect.MinE = float32(*minE)
		case "ePerDN":
			cfg.Detect.EPerDN = float32(*ePerDN)
		case "cond3Fac":
			cfg.Detect.Cond3Fac = float32(*cond3Fac)
		case "cond3Fac2":
			cfg.Detect.Cond3Fac2 = float32(*cond3Fac2)
		case "iterations":
			cfg.Detect.Iterations = int32(*iterations)
		case "keep":
			cfg.Detect.Keep = *keep
		case "bkgd":
			v := float32(*bkgd)
			cfg.Image.Background = &v
		case "noise":
			v := float32(*noise)
			cfg.Image.Noise = &v
		case "satLevel":
			cfg.Image.SatLevel = float32(*satLevel)
		case "psf":
			cfg.PSF.Model = *psfModel
		case "psfParams":
			psfParamsSet = true
		}
	})
	if psfParamsSet {
		params, err := parsePSFParams(*psfParams)
		if err != nil {
			return nil, err
		}
		cfg.PSF.Params = params
	}
	return cfg, nil
}

func parsePSFParams(s string) ([]float64, error) {
	var params []float64
	for _, part := range strings.Split(s, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid psf parameter %q: %w", part, err)
		}
		params = append(params, v)
	}
	return params, nil
}

func cmdDetect(patterns []string, logWriter io.Writer) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	sf, err := psf.DefaultRegistry().Create(cfg.PSF.Model, cfg.PSF.Params...)
	if err != nil {
		return err
	}
	params := cfg.DetectParams()

	fileNames, err := globFileNames(patterns)
	if err != nil {
		return err
	}
	if len(fileNames) == 0 {
		return errors.New("no input files given")
	}

	for id, fileName := range fileNames {
		if err := checkMemoryBudget(fileName); err != nil {
			return err
		}
		f, err := fits.NewImageFromFile(fileName, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(logWriter, "%d: loaded %s, a %s image\n", id, fileName, f.DimensionsToString())

		bkgdUsed, err := cr.Prepare(f, cfg.Image.Background, cfg.Image.Noise, cfg.Image.SatLevel, params.EPerDN, logWriter)
		if err != nil {
			return err
		}
		regions, err := cr.FindCosmicRays(f, sf, bkgdUsed, params, logWriter)
		if err != nil {
			return err
		}
		for _, reg := range regions {
			fmt.Fprintf(logWriter, "%d: cosmic ray %d with %d pixels in (%d,%d)-(%d,%d)\n",
				id, reg.ID, reg.NumPix, reg.BBox.X0, reg.BBox.Y0, reg.BBox.X1, reg.BBox.Y1)
		}

		if name := outName(*out, fileName, "_cr.fits"); name != "" {
			if err := f.WriteFile(name); err != nil {
				return err
			}
			fmt.Fprintf(logWriter, "%d: saved repaired image to %s\n", id, name)
		}
		if name := outName(*tiffOut, fileName, "_cr.tiff"); name != "" {
			if err := f.WriteMonoTIFF16ToFile(name, f.Stats.Min, f.Stats.Max, 1.0); err != nil {
				return err
			}
			fmt.Fprintf(logWriter, "%d: saved TIFF preview to %s\n", id, name)
		}
		if name := outName(*pngOut, fileName, "_cr.png"); name != "" {
			if err := cr.WriteOverlayPNGToFile(name, f, regions, f.Stats.Min, f.Stats.Max); err != nil {
				return err
			}
			fmt.Fprintf(logWriter, "%d: saved region overlay to %s\n", id, name)
		}
		if name := outName(*regionsOut, fileName, "_cr.json"); name != "" {
			m, err := json.MarshalIndent(regions, "", "  ")
			if err != nil {
				return err
			}
			if err := os.WriteFile(name, m, 0644); err != nil {
				return err
			}
			fmt.Fprintf(logWriter, "%d: saved %d regions to %s\n", id, len(regions), name)
		}
	}
	return nil
}

func globFileNames(patterns []string) ([]string, error) {
	var fileNames []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %s", pattern)
		}
		fileNames = append(fileNames, matches...)
	}
	return fileNames, nil
}

// Replaces %auto patterns with a name derived from the input file
func outName(pattern, inputName, suffix string) string {
	if pattern != "%auto" {
		return pattern
	}
	return strings.TrimSuffix(inputName, filepath.Ext(inputName)) + suffix
}

// Rejects input files whose decoded planes would blow the memory budget.
// A 16-bit integer input expands to a float32 data plane plus variance
// and mask planes, roughly 4.5x the file size
func checkMemoryBudget(fileName string) error {
	info, err := os.Stat(fileName)
	if err != nil {
		return err
	}
	needMiB := (info.Size() * 9 / 2) >> 20
	if needMiB > *maxMiB {
		return fmt.Errorf("%s needs about %d MiB to process, exceeding the %d MiB budget; raise -maxMiB to proceed",
			fileName, needMiB, *maxMiB)
	}
	return nil
}
