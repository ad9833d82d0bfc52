// core/masses/labels.go
package masses

// Reporter-label tables for isobaric quantification tags. Reporter ions are
// emitted directly at these m/z values when the N-terminal residue carries
// the label.

// LabelNames maps a label modification to its reporter ion names, channel
// order matching LabelMasses.
var LabelNames = map[string][]string{
	"TMT6plex": {
		"TMT^{126}", "TMT^{127}", "TMT^{128}",
		"TMT^{129}", "TMT^{130}", "TMT^{131}",
	},
	"TMT10plex": {
		"TMT^{126}", "TMT^{127N}", "TMT^{127C}", "TMT^{128N}", "TMT^{128C}",
		"TMT^{129N}", "TMT^{129C}", "TMT^{130N}", "TMT^{130C}", "TMT^{131}",
	},
	"iTRAQ4plex": {
		"iTRAQ^{114}", "iTRAQ^{115}", "iTRAQ^{116}", "iTRAQ^{117}",
	},
	"iTRAQ8plex": {
		"iTRAQ^{113}", "iTRAQ^{114}", "iTRAQ^{115}", "iTRAQ^{116}",
		"iTRAQ^{117}", "iTRAQ^{118}", "iTRAQ^{119}", "iTRAQ^{121}",
	},
}

// LabelMasses maps a label modification to its reporter ion m/z values.
var LabelMasses = map[string][]float64{
	"TMT6plex": {
		126.127726, 127.131081, 128.134436,
		129.137790, 130.141145, 131.138180,
	},
	"TMT10plex": {
		126.127726, 127.124761, 127.131081, 128.128116, 128.134436,
		129.131471, 129.137790, 130.134825, 130.141145, 131.138180,
	},
	"iTRAQ4plex": {
		114.110680, 115.107715, 116.111069, 117.114424,
	},
	"iTRAQ8plex": {
		113.107325, 114.110680, 115.107715, 116.111069,
		117.114424, 118.111459, 119.114877, 121.121524,
	},
}

// LabelNumbers maps a label modification to its plex count.
var LabelNumbers = map[string]int{
	"TMT6plex":   6,
	"TMT10plex":  10,
	"iTRAQ4plex": 4,
	"iTRAQ8plex": 8,
}

// LabelMZWindow maps a label modification to the m/z span holding all of its
// reporter channels, used to slice quantification peak windows.
var LabelMZWindow = map[string][2]float64{
	"TMT6plex":   {126.0, 131.2},
	"TMT10plex":  {126.0, 131.2},
	"iTRAQ4plex": {114.0, 117.2},
	"iTRAQ8plex": {113.0, 121.2},
}

// IsLabel reports whether the modification name is a quantification label.
func IsLabel(name string) bool {
	_, ok := LabelNames[name]
	return ok
}
