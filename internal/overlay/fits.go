package overlay

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"reflect"

	"github.com/astrogo/fitsio"
)

// Extension names searched for each overlay array in image files, in order
// of preference.
var (
	AxisExtensions  = []string{"DIAGNOSTIC", "FLUX"}
	ColorExtensions = []string{"SIGMA"}
)

// Column names read when a file holds a table instead of image maps.
const (
	AxisColumn  = "FLUX"
	ColorColumn = "SIGMA"
)

// LoadFITS reads x, y and color from three FITS files and flattens them.
// Image files give the DIAGNOSTIC map (else FLUX) for the axes and SIGMA for
// the color. Files with a table extension give the FLUX and SIGMA columns.
func LoadFITS(xPath, yPath, colorPath string) (x, y, color []float64, err error) {
	if x, err = readExtension(xPath, AxisExtensions, AxisColumn); err != nil {
		return nil, nil, nil, err
	}
	if y, err = readExtension(yPath, AxisExtensions, AxisColumn); err != nil {
		return nil, nil, nil, err
	}
	if color, err = readExtension(colorPath, ColorExtensions, ColorColumn); err != nil {
		return nil, nil, nil, err
	}
	return x, y, color, nil
}

// LoadMask reads a bad-pixel mask from the primary HDU. Non-zero pixels are
// excluded.
func LoadMask(path string) ([]bool, error) {
	f, closeFn, err := open(path)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	hdus := f.HDUs()
	if len(hdus) == 0 {
		return nil, fmt.Errorf("%s: no HDUs", path)
	}
	values, err := imageValues(hdus[0])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	mask := make([]bool, len(values))
	for i, v := range values {
		mask[i] = v != 0 && !math.IsNaN(v)
	}
	return mask, nil
}

// Load reads the three maps and an optional mask, then normalizes them.
func Load(xPath, yPath, colorPath, maskPath string) (Points, error) {
	x, y, c, err := LoadFITS(xPath, yPath, colorPath)
	if err != nil {
		return Points{}, err
	}
	var mask []bool
	if maskPath != "" {
		if mask, err = LoadMask(maskPath); err != nil {
			return Points{}, err
		}
	}
	return Normalize(x, y, c, mask)
}

func open(path string) (*fitsio.File, func(), error) {
	r, err := os.Open(path) //nolint:gosec // path is chosen by the user
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open FITS file: %w", err)
	}
	f, err := fitsio.Open(r)
	if err != nil {
		_ = r.Close()
		return nil, nil, fmt.Errorf("%s: failed to read FITS: %w", path, err)
	}
	return f, func() {
		_ = f.Close()
		_ = r.Close()
	}, nil
}

func readExtension(path string, names []string, column string) ([]float64, error) {
	f, closeFn, err := open(path)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	hdus := f.HDUs()
	if tbl := firstTable(hdus); tbl != nil {
		values, err := columnValues(tbl, column)
		if err != nil {
			return nil, fmt.Errorf("%s[%s]: %w", path, tbl.Name(), err)
		}
		return values, nil
	}

	for _, name := range names {
		for _, hdu := range hdus {
			if hdu.Name() != name {
				continue
			}
			values, err := imageValues(hdu)
			if err != nil {
				return nil, fmt.Errorf("%s[%s]: %w", path, name, err)
			}
			return values, nil
		}
	}
	return nil, fmt.Errorf("%s: no %v extension", path, names)
}

// firstTable returns the first table extension after the primary HDU.
func firstTable(hdus []fitsio.HDU) *fitsio.Table {
	for i, hdu := range hdus {
		if i == 0 {
			continue
		}
		if tbl, ok := hdu.(*fitsio.Table); ok {
			return tbl
		}
	}
	return nil
}

// columnValues reads one numeric column of a table, flattening vector
// cells and applying TSCAL and TZERO.
func columnValues(tbl *fitsio.Table, name string) ([]float64, error) {
	icol := tbl.Index(name)
	if icol < 0 {
		return nil, fmt.Errorf("no %s column", name)
	}
	col := tbl.Col(icol)

	rows, err := tbl.Read(0, tbl.NumRows())
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]float64, 0, tbl.NumRows())
	for rows.Next() {
		row := map[string]interface{}{name: nil}
		if err := rows.Scan(&row); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", name, err)
		}
		if out, err = appendNumeric(out, reflect.ValueOf(row[name])); err != nil {
			return nil, fmt.Errorf("column %s: %w", name, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	if col.Bscale != 0 && (col.Bscale != 1 || col.Bzero != 0) {
		for i, v := range out {
			out[i] = v*col.Bscale + col.Bzero
		}
	}
	return out, nil
}

func appendNumeric(out []float64, v reflect.Value) ([]float64, error) {
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		var err error
		for i := 0; i < v.Len(); i++ {
			if out, err = appendNumeric(out, v.Index(i)); err != nil {
				return nil, err
			}
		}
		return out, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return append(out, float64(v.Int())), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return append(out, float64(v.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return append(out, v.Float()), nil
	default:
		return nil, fmt.Errorf("unsupported cell type %s", v.Kind())
	}
}

// imageValues flattens an image HDU to float64, applying BSCALE and BZERO.
func imageValues(hdu fitsio.HDU) ([]float64, error) {
	img, ok := hdu.(fitsio.Image)
	if !ok {
		return nil, fmt.Errorf("HDU %q is not an image", hdu.Name())
	}
	hdr := img.Header()
	raw := img.Raw()
	if n := pixels(hdr.Axes()) * abs(hdr.Bitpix()) / 8; n > 0 && n < len(raw) {
		raw = raw[:n]
	}
	values, err := decodeRaw(raw, hdr.Bitpix())
	if err != nil {
		return nil, err
	}

	scale, zero := cardFloat(hdr, "BSCALE", 1), cardFloat(hdr, "BZERO", 0)
	if scale != 1 || zero != 0 {
		for i, v := range values {
			values[i] = v*scale + zero
		}
	}
	return values, nil
}

func cardFloat(hdr *fitsio.Header, name string, def float64) float64 {
	card := hdr.Get(name)
	if card == nil {
		return def
	}
	switch v := card.Value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return def
	}
}

// decodeRaw converts big-endian FITS pixel data.
func decodeRaw(raw []byte, bitpix int) ([]float64, error) {
	size := abs(bitpix) / 8
	if size == 0 || len(raw)%size != 0 {
		return nil, fmt.Errorf("unsupported BITPIX %d for %d bytes", bitpix, len(raw))
	}
	n := len(raw) / size
	out := make([]float64, n)
	be := binary.BigEndian
	for i := 0; i < n; i++ {
		b := raw[i*size : (i+1)*size]
		switch bitpix {
		case 8:
			out[i] = float64(b[0])
		case 16:
			out[i] = float64(int16(be.Uint16(b)))
		case 32:
			out[i] = float64(int32(be.Uint32(b)))
		case 64:
			out[i] = float64(int64(be.Uint64(b)))
		case -32:
			out[i] = float64(math.Float32frombits(be.Uint32(b)))
		case -64:
			out[i] = math.Float64frombits(be.Uint64(b))
		default:
			return nil, fmt.Errorf("unsupported BITPIX %d", bitpix)
		}
	}
	return out, nil
}

func pixels(axes []int) int {
	if len(axes) == 0 {
		return 0
	}
	n := 1
	for _, a := range axes {
		n *= a
	}
	return n
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
