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

package fits

import (
	"compress/gzip"
	"fmt"
	"io"
	"math"
	"os"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/rmurata/crclean/internal/stats"
)

var reHeaderLine *regexp.Regexp = compileHeaderRE() // parser for FITS header lines

func NewImageFromFile(fileName string, id int) (*Image, error) {
	f := NewImage()
	f.ID = id
	return f, f.ReadFile(fileName)
}

// Read FITS data from the file with the given name.
// Decompresses gzip if a .gz or .gzip suffix is present.
func (f *Image) ReadFile(fileName string) error {
	file, err := os.Open(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	f.FileName = fileName
	var r io.Reader = file
	switch strings.ToLower(path.Ext(fileName)) {
	case ".gz", ".gzip":
		if r, err = gzip.NewReader(file); err != nil {
			return err
		}
	}
	return f.Read(r)
}

func (f *Image) popHeaderInt32(key string) (res int32, err error) {
	if val, ok := f.Header.Ints[key]; ok {
		delete(f.Header.Ints, key)
		return val, nil
	}
	return 0, fmt.Errorf("%d: FITS header does not contain key %s", f.ID, key)
}

func (f *Image) popHeaderInt32OrFloat(key string) (res float32, err error) {
	if val, ok := f.Header.Ints[key]; ok {
		delete(f.Header.Ints, key)
		return float32(val), nil
	} else if val, ok := f.Header.Floats[key]; ok {
		delete(f.Header.Floats, key)
		return val, nil
	}
	return 0, fmt.Errorf("%d: FITS header does not contain key %s", f.ID, key)
}

// Read a FITS image from the given reader: header, mandatory keys, payload
func (f *Image) Read(r io.Reader) (err error) {
	if err = f.Header.read(r, f.ID); err != nil {
		return err
	}

	// check mandatory fields as per standard
	if !f.Header.Bools["SIMPLE"] {
		return fmt.Errorf("%d: not a valid FITS file; SIMPLE=T missing in header", f.ID)
	}
	delete(f.Header.Bools, "SIMPLE")

	if f.Bitpix, err = f.popHeaderInt32("BITPIX"); err != nil {
		return err
	}
	var naxis int32
	if naxis, err = f.popHeaderInt32("NAXIS"); err != nil {
		return err
	}
	f.Naxisn = make([]int32, naxis)
	f.Pixels = 1
	for i := int32(1); i <= naxis; i++ {
		var n int32
		if n, err = f.popHeaderInt32("NAXIS" + strconv.FormatInt(int64(i), 10)); err != nil {
			return err
		}
		f.Naxisn[i-1] = n
		f.Pixels *= n
	}

	// optional fields relevant for further processing
	if f.Bzero, err = f.popHeaderInt32OrFloat("BZERO"); err != nil {
		f.Bzero = 0
	}
	if f.Bscale, err = f.popHeaderInt32OrFloat("BSCALE"); err != nil {
		f.Bscale = 1
	}
	if f.Exposure, err = f.popHeaderInt32OrFloat("EXPOSURE"); err != nil {
		if f.Exposure, err = f.popHeaderInt32OrFloat("EXPTIME"); err != nil {
			f.Exposure = 0
		}
	}
	if x0, err := f.popHeaderInt32("CRX0"); err == nil {
		f.X0 = x0
	}
	if y0, err := f.popHeaderInt32("CRY0"); err == nil {
		f.Y0 = y0
	}

	return f.readData(r)
}

// Read image payload, convert to float32 and fold in Bzero/Bscale
func (f *Image) readData(r io.Reader) error {
	bytesPerValue := int(f.Bitpix) / 8
	if bytesPerValue < 0 {
		bytesPerValue = -bytesPerValue
	}
	switch f.Bitpix {
	case 8, 16, 32, -32, -64:
	default:
		return fmt.Errorf("%d: unsupported BITPIX value %d", f.ID, f.Bitpix)
	}

	raw := make([]byte, int(f.Pixels)*bytesPerValue)
	if _, err := io.ReadFull(r, raw); err != nil {
		return fmt.Errorf("%d: reading %d data bytes: %s", f.ID, len(raw), err.Error())
	}

	f.Data = make([]float32, f.Pixels)
	for i := range f.Data {
		var v float32
		o := i * bytesPerValue
		switch f.Bitpix {
		case 8:
			v = float32(raw[o])
		case 16:
			v = float32(int16(uint16(raw[o])<<8 | uint16(raw[o+1])))
		case 32:
			v = float32(int32(uint32(raw[o])<<24 | uint32(raw[o+1])<<16 | uint32(raw[o+2])<<8 | uint32(raw[o+3])))
		case -32:
			bits := uint32(raw[o])<<24 | uint32(raw[o+1])<<16 | uint32(raw[o+2])<<8 | uint32(raw[o+3])
			v = math.Float32frombits(bits)
		case -64:
			bits := uint64(raw[o])<<56 | uint64(raw[o+1])<<48 | uint64(raw[o+2])<<40 | uint64(raw[o+3])<<32 |
				uint64(raw[o+4])<<24 | uint64(raw[o+5])<<16 | uint64(raw[o+6])<<8 | uint64(raw[o+7])
			v = float32(math.Float64frombits(bits))
		}
		f.Data[i] = v*f.Bscale + f.Bzero
	}
	f.Bzero, f.Bscale = 0, 1 // data values incorporate these now
	f.Stats = stats.CalcBasicStats(f.Data)
	return nil
}

func (h *Header) read(r io.Reader, id int) error {
	buf := make([]byte, fitsBlockSize)

	for !h.End {
		// read next header unit
		if _, err := io.ReadFull(r, buf); err != nil {
			return fmt.Errorf("%d: reading header block: %s", id, err.Error())
		}

		// parse all lines in this header unit
		for lineNo := 0; lineNo < fitsBlockSize/headerLineSize && !h.End; lineNo++ {
			line := buf[lineNo*headerLineSize : (lineNo+1)*headerLineSize]
			sub := reHeaderLine.FindSubmatch(line)
			if sub == nil {
				continue // tolerate and skip lines we cannot parse
			}
			h.readLine(reHeaderLine.SubexpNames(), sub)
		}
	}
	return nil
}

func (h *Header) readLine(subNames []string, subValues [][]byte) {
	key := ""
	// index 0 is the whole line
	for i := 1; i < len(subNames); i++ {
		if subValues[i] == nil || len(subNames[i]) != 1 {
			continue
		}
		switch subNames[i][0] {
		case 'E': // end line
			h.End = true
		case 'H': // history line
			h.History = append(h.History, string(subValues[i]))
		case 'C': // comment line
			h.Comments = append(h.Comments, string(subValues[i]))
		case 'k': // key
			key = string(subValues[i])
		case 'b': // boolean
			if len(subValues[i]) > 0 {
				v := subValues[i][0]
				h.Bools[key] = v == 't' || v == 'T'
			}
		case 'i': // int
			if val, err := strconv.ParseInt(string(subValues[i]), 10, 64); err == nil {
				h.Ints[key] = int32(val)
			}
		case 'f': // float
			if val, err := strconv.ParseFloat(string(subValues[i]), 64); err == nil {
				h.Floats[key] = float32(val)
			}
		case 's': // string
			h.Strings[key] = string(subValues[i])
		}
	}
}

// Build regexp parser for FITS header lines
func compileHeaderRE() *regexp.Regexp {
	white := "\\s+"
	whiteOpt := "\\s*"

	histLine := "HISTORY" + white + "(?P<H>.*)"
	commLine := "COMMENT" + white + "(?P<C>.*)"
	endLine := "(?P<E>END)" + whiteOpt

	key := "(?P<k>[A-Z0-9_-]+)"
	boo := "(?P<b>[TF])"
	inte := "(?P<i>[+-]?[0-9]+)"
	floa := "(?P<f>[+-]?[0-9]*\\.[0-9]*(?:[ED][-+]?[0-9]+)?)"
	stri := "'(?P<s>[^']*)'"
	val := "(?:" + boo + "|" + inte + "|" + floa + "|" + stri + ")"
	commOpt := "(?:/.*)?"
	keyLine := key + whiteOpt + "=" + whiteOpt + val + whiteOpt + commOpt

	return regexp.MustCompile("^(?:" + white + "|" + histLine + "|" + commLine + "|" + keyLine + "|" + endLine + ")$")
}
