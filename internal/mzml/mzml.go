// internal/mzml/mzml.go
// Package mzml reads centroided spectra and precursor metadata from mzML
// files. Only the read path is implemented; spectra are indexed by the scan
// number embedded in their id attribute.
package mzml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
)

// CV accessions consumed below.
const (
	accMSLevel         = "MS:1000511"
	accIsolationTarget = "MS:1000827"
	accIsolationLower  = "MS:1000828"
	accIsolationUpper  = "MS:1000829"
	accSelectedIonMZ   = "MS:1000744"
	accChargeState     = "MS:1000041"
	accCID             = "MS:1000133"
	accHCD             = "MS:1000422"
	accETD             = "MS:1000598"
	accMZArray         = "MS:1000514"
	accIntensityArray  = "MS:1000515"
	accFloat32         = "MS:1000521"
	accFloat64         = "MS:1000523"
	accZlib            = "MS:1000574"
)

var ErrScanNotFound = errors.New("mzml: scan not found")

var reScanNumber = regexp.MustCompile(`scan=(\d+)`)

// Peak is one centroided data point.
type Peak struct {
	MZ        float64
	Intensity float64
}

// Spectrum is the decoded view of one mzML spectrum element.
type Spectrum struct {
	ScanNumber int
	MSLevel    int

	// Precursor metadata; zero values when the spectrum has no
	// precursorList (MS1 scans).
	PrecursorScan int
	IsolationMZ   float64
	WindowOffset  [2]float64
	SelectedMZ    float64
	Charge        int
	Collision     string

	Peaks []Peak
}

// File is an in-memory mzML document indexed by scan number.
type File struct {
	scans map[int]*Spectrum
	order []int
}

// Open parses the mzML file at path.
func Open(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = fh.Close() }()
	f, err := Parse(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse reads a complete mzML document.
func Parse(r io.Reader) (*File, error) {
	var doc mzMLContent
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, err
	}

	f := &File{scans: make(map[int]*Spectrum, len(doc.Run.SpectrumList.Spectrum))}
	for i := range doc.Run.SpectrumList.Spectrum {
		s, err := decodeSpectrum(&doc.Run.SpectrumList.Spectrum[i])
		if err != nil {
			return nil, err
		}
		f.scans[s.ScanNumber] = s
		f.order = append(f.order, s.ScanNumber)
	}
	return f, nil
}

// Len returns the number of spectra read.
func (f *File) Len() int { return len(f.order) }

// Scan returns the spectrum with the given scan number.
func (f *File) Scan(num int) (*Spectrum, error) {
	s, ok := f.scans[num]
	if !ok {
		return nil, fmt.Errorf("scan %d: %w", num, ErrScanNotFound)
	}
	return s, nil
}

func decodeSpectrum(sp *spectrum) (*Spectrum, error) {
	out := &Spectrum{ScanNumber: sp.Index + 1}
	if m := reScanNumber.FindStringSubmatch(sp.ID); m != nil {
		out.ScanNumber, _ = strconv.Atoi(m[1])
	}

	for _, cv := range sp.CvParam {
		if cv.Accession == accMSLevel {
			out.MSLevel, _ = strconv.Atoi(cv.Value)
		}
	}

	for _, pl := range sp.PrecursorList {
		for _, prec := range pl.Precursor {
			if m := reScanNumber.FindStringSubmatch(prec.SpectrumRef); m != nil {
				out.PrecursorScan, _ = strconv.Atoi(m[1])
			}
			for _, cv := range prec.IsolationWindow.CvParam {
				v, _ := strconv.ParseFloat(cv.Value, 64)
				switch cv.Accession {
				case accIsolationTarget:
					out.IsolationMZ = v
				case accIsolationLower:
					out.WindowOffset[0] = v
				case accIsolationUpper:
					out.WindowOffset[1] = v
				}
			}
			for _, si := range prec.SelectedIonList.SelectedIon {
				for _, cv := range si.CvParam {
					switch cv.Accession {
					case accSelectedIonMZ:
						out.SelectedMZ, _ = strconv.ParseFloat(cv.Value, 64)
					case accChargeState:
						out.Charge, _ = strconv.Atoi(cv.Value)
					}
				}
			}
			for _, cv := range prec.Activation.CvParam {
				switch cv.Accession {
				case accCID:
					out.Collision = "CID"
				case accHCD:
					out.Collision = "HCD"
				case accETD:
					out.Collision = "ETD"
				}
			}
		}
	}

	mzs, intens, err := decodeArrays(sp.BinaryDataArrayList.BinaryDataArray)
	if err != nil {
		return nil, fmt.Errorf("spectrum %q: %w", sp.ID, err)
	}
	if len(mzs) != len(intens) {
		return nil, fmt.Errorf("spectrum %q: %d m/z values vs %d intensities", sp.ID, len(mzs), len(intens))
	}
	out.Peaks = make([]Peak, len(mzs))
	for i := range mzs {
		out.Peaks[i] = Peak{MZ: mzs[i], Intensity: intens[i]}
	}
	return out, nil
}

func decodeArrays(arrays []binaryDataArray) (mzs, intens []float64, err error) {
	for i := range arrays {
		vals, kind, err := decodeBinary(&arrays[i])
		if err != nil {
			return nil, nil, err
		}
		switch kind {
		case accMZArray:
			mzs = vals
		case accIntensityArray:
			intens = vals
		}
	}
	return mzs, intens, nil
}

// mzML document structure (read path).

type mzMLContent struct {
	XMLName xml.Name `xml:"http://psi.hupo.org/ms/mzml mzML"`
	Run     run      `xml:"run"`
}

type run struct {
	ID           string       `xml:"id,attr"`
	SpectrumList spectrumList `xml:"spectrumList"`
}

type spectrumList struct {
	Count    int        `xml:"count,attr"`
	Spectrum []spectrum `xml:"spectrum"`
}

type spectrum struct {
	Index               int                 `xml:"index,attr"`
	ID                  string              `xml:"id,attr"`
	DefaultArrayLength  int64               `xml:"defaultArrayLength,attr"`
	CvParam             []cvParam           `xml:"cvParam"`
	PrecursorList       []precursorList     `xml:"precursorList"`
	BinaryDataArrayList binaryDataArrayList `xml:"binaryDataArrayList"`
}

type precursorList struct {
	Count     int         `xml:"count,attr"`
	Precursor []precursor `xml:"precursor"`
}

type precursor struct {
	SpectrumRef     string          `xml:"spectrumRef,attr"`
	IsolationWindow isolationWindow `xml:"isolationWindow"`
	SelectedIonList selectedIonList `xml:"selectedIonList"`
	Activation      activation      `xml:"activation"`
}

type isolationWindow struct {
	CvParam []cvParam `xml:"cvParam"`
}

type selectedIonList struct {
	Count       int           `xml:"count,attr"`
	SelectedIon []selectedIon `xml:"selectedIon"`
}

type selectedIon struct {
	CvParam []cvParam `xml:"cvParam"`
}

type activation struct {
	CvParam []cvParam `xml:"cvParam"`
}

type binaryDataArrayList struct {
	Count           int               `xml:"count,attr"`
	BinaryDataArray []binaryDataArray `xml:"binaryDataArray"`
}

type binaryDataArray struct {
	EncodedLength int       `xml:"encodedLength,attr"`
	CvParam       []cvParam `xml:"cvParam"`
	Binary        string    `xml:"binary"`
}

type cvParam struct {
	Accession string `xml:"accession,attr"`
	Name      string `xml:"name,attr"`
	Value     string `xml:"value,attr"`
}
