package filter

// Noise reduction defaults, tuned for speech.
const (
	DefaultHighpass    = 200.0
	DefaultAfftdnStart = 0.0
	DefaultAfftdnStop  = 1.5
	DefaultAfftdnNF    = -25.0
	DefaultLowpass     = 3000.0
)

// NoiseReduction describes the speech cleanup filter chain.
// A nil field disables its filter.
type NoiseReduction struct {
	Highpass *float64 // Hz

	// AfftdnStart and AfftdnStop bound the window, in seconds, in which
	// afftdn samples the noise profile. Both must be set.
	AfftdnStart *float64
	AfftdnStop  *float64

	AfftdnNF        *float64 // noise floor, dB
	DialogueEnhance bool
	Lowpass         *float64 // Hz
}

// DefaultNoiseReduction returns the default filter chain settings.
func DefaultNoiseReduction() NoiseReduction {
	return NoiseReduction{
		Highpass:        Float(DefaultHighpass),
		AfftdnStart:     Float(DefaultAfftdnStart),
		AfftdnStop:      Float(DefaultAfftdnStop),
		AfftdnNF:        Float(DefaultAfftdnNF),
		DialogueEnhance: true,
		Lowpass:         Float(DefaultLowpass),
	}
}

// Filters returns the audio filters in application order.
func (n NoiseReduction) Filters() []string {
	var filters []string
	if n.Highpass != nil {
		filters = append(filters, "highpass=f="+num(*n.Highpass))
	}
	if n.AfftdnStart != nil && n.AfftdnStop != nil {
		filters = append(filters,
			"asendcmd="+num(*n.AfftdnStart)+" afftdn sn start",
			"asendcmd="+num(*n.AfftdnStop)+" afftdn sn stop")
	}
	if n.AfftdnNF != nil {
		filters = append(filters, "afftdn=nf="+num(*n.AfftdnNF))
	}
	if n.DialogueEnhance {
		filters = append(filters, "dialoguenhance")
	}
	if n.Lowpass != nil && *n.Lowpass != 0 {
		filters = append(filters, "lowpass=f="+num(*n.Lowpass))
	}
	return filters
}
