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

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadOverridesDefaults(t *testing.T) {
	yml := `
detect:
  minSigma: 4.5
  keep: true
psf:
  model: dgauss
  params: [2.0]
image:
  background: 180.5
`
	fileName := filepath.Join(t.TempDir(), "settings.yml")
	if err := os.WriteFile(fileName, []byte(yml), 0644); err != nil {
		t.Fatalf("writing settings: %v", err)
	}

	c, err := Load(fileName)
	if err != nil {
		t.Fatalf("Load error %v", err)
	}
	if c.Detect.MinSigma != 4.5 {
		t.Errorf("minSigma=%v; want 4.5", c.Detect.MinSigma)
	}
	if !c.Detect.Keep {
		t.Errorf("keep=false; want true")
	}
	if c.Detect.MinE != 150 { // untouched default
		t.Errorf("minE=%v; want default 150", c.Detect.MinE)
	}
	if c.Image.Background == nil || *c.Image.Background != 180.5 {
		t.Errorf("background=%v; want 180.5", c.Image.Background)
	}
	if c.Image.Noise != nil {
		t.Errorf("noise=%v; want nil", c.Image.Noise)
	}
	if len(c.PSF.Params) != 1 || c.PSF.Params[0] != 2.0 {
		t.Errorf("psf params=%v; want [2]", c.PSF.Params)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/settings.yml"); err == nil {
		t.Errorf("expected error for missing file")
	}
}
