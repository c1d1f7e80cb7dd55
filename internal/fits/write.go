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
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
)

// Writes an in-memory FITS image to a file with given filename.
// Creates/overwrites the file if necessary
func (f *Image) WriteFile(fileName string) error {
	file, err := os.OpenFile(fileName, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	if err = f.Write(w); err != nil {
		return err
	}
	return w.Flush()
}

// Writes an in-memory FITS image to an io.Writer as 32-bit floating point
func (f *Image) Write(w io.Writer) error {
	// Build header in string buffer
	sb := strings.Builder{}
	writeHeaderBool(&sb, "SIMPLE", true, "    FITS standard 4.0")
	writeHeaderInt32(&sb, "BITPIX", -32, "    32-bit floating point")
	writeHeaderInt32(&sb, "NAXIS", int32(len(f.Naxisn)), "[1] Number of axis")
	for i, naxis := range f.Naxisn {
		writeHeaderInt32(&sb, fmt.Sprintf("NAXIS%d", i+1), naxis, "[1] Axis size")
	}
	writeHeaderFloat32(&sb, "BZERO", 0, "[1] Zero offset")
	if f.X0 != 0 {
		writeHeaderInt32(&sb, "CRX0", f.X0, "[1] Origin column offset")
	}
	if f.Y0 != 0 {
		writeHeaderInt32(&sb, "CRY0", f.Y0, "[1] Origin row offset")
	}
	if f.Exposure != 0 {
		writeHeaderFloat32(&sb, "EXPTIME", f.Exposure, "[s] Exposure time")
	}
	sb.WriteString(fmt.Sprintf("END%s", strings.Repeat(" ", headerLineSize-3)))

	// Pad current header block with spaces if necessary
	if fill := sb.Len() % fitsBlockSize; fill > 0 {
		sb.WriteString(strings.Repeat(" ", fitsBlockSize-fill))
	}

	if _, err := w.Write([]byte(sb.String())); err != nil {
		return err
	}

	// Write payload data, replacing NaNs with zeros for compatibility
	return writeFloat32Array(w, f.Data, true)
}

// Writes a FITS header boolean value
func writeHeaderBool(w io.Writer, key string, value bool, comment string) {
	v := "F"
	if value {
		v = "T"
	}
	writeHeaderLine(w, key, v, comment)
}

// Writes a FITS header int32 value
func writeHeaderInt32(w io.Writer, key string, value int32, comment string) {
	writeHeaderLine(w, key, fmt.Sprintf("%d", value), comment)
}

// Writes a FITS header float32 value
func writeHeaderFloat32(w io.Writer, key string, value float32, comment string) {
	writeHeaderLine(w, key, fmt.Sprintf("%g", value), comment)
}

// Writes one fixed-width FITS header line
func writeHeaderLine(w io.Writer, key, value, comment string) {
	if len(key) > 8 {
		key = key[0:8]
	}
	if len(comment) > 47 {
		comment = comment[0:47]
	}
	fmt.Fprintf(w, "%-8s= %20s / %-47s", key, value, comment)
}

// Writes FITS binary body data in network byte order.
// Optionally replaces NaNs with zeros for compatibility with other software
func writeFloat32Array(w io.Writer, data []float32, replaceNaNs bool) error {
	buf := make([]byte, fitsBlockSize)
	valuesPerBlock := fitsBlockSize >> 2

	for block := 0; block < len(data); block += valuesPerBlock {
		size := len(data) - block
		if size > valuesPerBlock {
			size = valuesPerBlock
		}
		for offset := 0; offset < size; offset++ {
			d := data[block+offset]
			if replaceNaNs && math.IsNaN(float64(d)) {
				d = 0
			}
			val := math.Float32bits(d)
			buf[(offset<<2)+0] = byte(val >> 24)
			buf[(offset<<2)+1] = byte(val >> 16)
			buf[(offset<<2)+2] = byte(val >> 8)
			buf[(offset<<2)+3] = byte(val)
		}
		if _, err := w.Write(buf[:size<<2]); err != nil {
			return err
		}
	}

	// pad final data block with zeros as per standard
	if fill := (len(data) << 2) % fitsBlockSize; fill > 0 {
		for i := range buf[:fitsBlockSize-fill] {
			buf[i] = 0
		}
		if _, err := w.Write(buf[:fitsBlockSize-fill]); err != nil {
			return err
		}
	}
	return nil
}
