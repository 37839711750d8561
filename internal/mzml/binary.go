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

// binaryDataPars decodes the CV terms in a mzML binarydata section.
// The defaults are no compression and 32 bits.
func binaryDataPars(binaryDataArray *binaryDataArray) (
	zlibCompression bool, width Width, role ArrayRole, err error) {
	width = Width32
	for _, cvParam := range binaryDataArray.CvPar {
		if z, ok, cErr := CompressionFromAccession(cvParam.Accession); ok {
			if cErr != nil {
				return false, 0, ArrayOther,
					fmt.Errorf("%w (CV term %s)", cErr, cvParam.Accession)
			}
			zlibCompression = z
			continue
		}
		if w, ok := WidthFromAccession(cvParam.Accession); ok {
			width = w
			continue
		}
		if r := ArrayRoleFromAccession(cvParam.Accession); r != ArrayOther {
			role = r
		}
	}
	return zlibCompression, width, role, nil
}

// DecodeBinary converts raw (base64 decoded) array bytes into float64
// values. The data is inflated first if compressed is set.
func DecodeBinary(data []byte, compressed bool, width Width) ([]float64, error) {
	if width != Width32 && width != Width64 {
		return nil, &PayloadError{Reason: fmt.Sprintf("invalid element width %d", width)}
	}
	if compressed && len(data) > 0 {
		z, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, &PayloadError{Reason: "zlib header", Err: err}
		}
		defer z.Close()
		d, err := io.ReadAll(z)
		if err != nil {
			return nil, &PayloadError{Reason: "zlib stream", Err: err}
		}
		data = d
	}
	if len(data)%int(width) != 0 {
		return nil, &PayloadError{
			Reason: fmt.Sprintf("%d bytes is not a multiple of %d", len(data), width)}
	}
	cnt := len(data) / int(width)
	v := make([]float64, cnt)
	if width == Width64 {
		for i := 0; i < cnt; i++ {
			bits := binary.LittleEndian.Uint64(data[i*8:])
			v[i] = math.Float64frombits(bits)
		}
	} else {
		for i := 0; i < cnt; i++ {
			bits := binary.LittleEndian.Uint32(data[i*4:])
			v[i] = float64(math.Float32frombits(bits))
		}
	}
	return v, nil
}

// EncodeBinary is the inverse of DecodeBinary
func EncodeBinary(values []float64, compressed bool, width Width) ([]byte, error) {
	var raw []byte
	switch width {
	case Width64:
		raw = make([]byte, len(values)*8)
		for i, v := range values {
			binary.LittleEndian.PutUint64(raw[8*i:], math.Float64bits(v))
		}
	case Width32:
		raw = make([]byte, len(values)*4)
		for i, v := range values {
			binary.LittleEndian.PutUint32(raw[4*i:], math.Float32bits(float32(v)))
		}
	default:
		return nil, &PayloadError{Reason: fmt.Sprintf("invalid element width %d", width)}
	}
	if !compressed {
		return raw, nil
	}
	var b bytes.Buffer
	z := zlib.NewWriter(&b)
	if _, err := z.Write(raw); err != nil {
		return nil, err
	}
	// zlib writer must explicitly be closed here, otherwise the result is invalid
	if err := z.Close(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// DecodeBase64 decodes the text of a <binary> element. Line breaks and
// other white space that some writers insert are ignored.
func DecodeBase64(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, s)
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, &PayloadError{Reason: "base64", Err: err}
	}
	return data, nil
}

// EncodeBase64 encodes array bytes as <binary> text
func EncodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// decodeArray decodes one binaryDataArray. role is ArrayOther for arrays
// that are not m/z or intensity; those are not decoded.
func decodeArray(b *binaryDataArray) (ArrayRole, []float64, error) {
	zlibCompression, width, role, err := binaryDataPars(b)
	if err != nil {
		return role, nil, err
	}
	// We are only interested in mz and intensity
	if role == ArrayOther {
		return role, nil, nil
	}
	data, err := DecodeBase64(b.Binary)
	if err != nil {
		return role, nil, err
	}
	v, err := DecodeBinary(data, zlibCompression, width)
	return role, v, err
}

// encodeArray stores values in b, keeping b's compression and width
func encodeArray(b *binaryDataArray, values []float64) error {
	zlibCompression, width, _, err := binaryDataPars(b)
	if err != nil {
		return err
	}
	data, err := EncodeBinary(values, zlibCompression, width)
	if err != nil {
		return err
	}
	b.Binary = EncodeBase64(data)
	b.ArrayLength = len(values)
	b.EncodedLength = len(b.Binary)
	return nil
}
