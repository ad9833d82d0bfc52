// internal/mzml/binary.go
package mzml

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strings"
)

// decodeBinary decodes one binaryDataArray element and reports which array
// kind (m/z or intensity accession) it carries.
func decodeBinary(arr *binaryDataArray) ([]float64, string, error) {
	kind := ""
	acc64 := false
	compressed := false
	for _, cv := range arr.CvParam {
		switch cv.Accession {
		case accMZArray, accIntensityArray:
			kind = cv.Accession
		case accFloat64:
			acc64 = true
		case accFloat32:
			acc64 = false
		case accZlib:
			compressed = true
		}
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(arr.Binary))
	if err != nil {
		return nil, kind, fmt.Errorf("binary data: %w", err)
	}
	if compressed {
		zr, err := zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, kind, fmt.Errorf("zlib: %w", err)
		}
		raw, err = io.ReadAll(zr)
		_ = zr.Close()
		if err != nil {
			return nil, kind, fmt.Errorf("zlib: %w", err)
		}
	}

	width := 4
	if acc64 {
		width = 8
	}
	if len(raw)%width != 0 {
		return nil, kind, fmt.Errorf("binary data length %d not a multiple of %d", len(raw), width)
	}

	vals := make([]float64, len(raw)/width)
	for i := range vals {
		chunk := raw[i*width:]
		if acc64 {
			vals[i] = math.Float64frombits(binary.LittleEndian.Uint64(chunk))
		} else {
			vals[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(chunk)))
		}
	}
	return vals, kind, nil
}
