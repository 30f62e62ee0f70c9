// Package msis adapts the NRLMSISE-00 atmosphere model to a flat,
// fixed-size array contract.
//
// The model itself is an external collaborator reached through the Model
// interface. This package only packs caller arguments into the model's
// structured records, invokes it once, and copies the structured output
// back into caller-owned arrays. All records are local to a single call.
package msis

// Fixed record sizes imposed by the model.
const (
	NumAP        = 7
	NumSwitches  = 24
	NumDensities = 9
	NumTemps     = 2
)

// APArray holds the magnetic activity values used when switch 9 is -1.
//
//	0: daily Ap
//	1: 3 hr ap index for current time
//	2: 3 hr ap index for 3 hrs before current time
//	3: 3 hr ap index for 6 hrs before current time
//	4: 3 hr ap index for 9 hrs before current time
//	5: average of eight 3 hr ap indices from 12 to 33 hrs prior
//	6: average of eight 3 hr ap indices from 36 to 57 hrs prior
type APArray [NumAP]float64

// Switches selects which model terms are included. 0 is off, 1 is on and
// 2 is main effects off but cross terms on.
type Switches [NumSwitches]int

// Switch indices.
const (
	SwitchUnits          = iota // output in meters and kilograms instead of cm and g
	SwitchF107Mean              // F10.7 effect on mean
	SwitchTimeIndep             // time independent
	SwitchSymAnnual             // symmetrical annual
	SwitchSymSemiannual         // symmetrical semiannual
	SwitchAsymAnnual            // asymmetrical annual
	SwitchAsymSemiannual        // asymmetrical semiannual
	SwitchDiurnal               // diurnal
	SwitchSemidiurnal           // semidiurnal
	SwitchDailyAp               // daily ap; -1 selects the full APArray
	SwitchUTLong                // all UT/long effects
	SwitchLongitudinal          // longitudinal
	SwitchUTMixed               // UT and mixed UT/long
	SwitchMixedApUTLong         // mixed AP/UT/long
	SwitchTerdiurnal            // terdiurnal
	SwitchDiffusive             // departures from diffusive equilibrium
	SwitchTinf                  // all TINF var
	SwitchTlb                   // all TLB var
	SwitchTn1                   // all TN1 var
	SwitchS                     // all S var
	SwitchTn2                   // all TN2 var
	SwitchNlb                   // all NLB var
	SwitchTn3                   // all TN3 var
	SwitchTurboScale            // turbo scale height var
)

// Density indices into Output.D. Number densities are per cm^3 (per m^3
// with SwitchUnits on); mass density is g/cm^3 (kg/m^3).
const (
	DensityHe = iota
	DensityO
	DensityN2
	DensityO2
	DensityAr
	DensityMass
	DensityH
	DensityN
	DensityAnomalousO
)

// Temperature indices into Output.T, in kelvin.
const (
	TempExospheric = iota
	TempLocal
)

// DefaultSwitches returns the standard switch set: switch 0 off, the rest on.
func DefaultSwitches() Switches {
	var sw Switches
	for i := 1; i < NumSwitches; i++ {
		sw[i] = 1
	}
	return sw
}

// AllOn returns a switch set with every term enabled.
func AllOn() Switches {
	var sw Switches
	for i := range sw {
		sw[i] = 1
	}
	return sw
}

// Input is the model's structured input record.
type Input struct {
	Year  int     // currently ignored by the model
	DOY   int     // day of year
	Sec   float64 // seconds in day (UT)
	Alt   float64 // altitude in kilometers
	GLat  float64 // geodetic latitude
	GLong float64 // geodetic longitude
	LST   float64 // local apparent solar time (hours)
	F107A float64 // 81 day average of F10.7 flux (centered on doy)
	F107  float64 // daily F10.7 flux for previous day
	Ap    float64 // magnetic index (daily)
	APA   *APArray
}

// Flags is the model's structured switch record.
type Flags struct {
	Switches Switches
}

// Output is the model's structured output record.
type Output struct {
	D [NumDensities]float64
	T [NumTemps]float64
}

// Model evaluates the atmosphere for one input/flag pair. Implementations
// must populate every element of out.
type Model interface {
	GTD7D(in *Input, flags *Flags, out *Output)
}

// ModelFunc adapts a plain function to the Model interface.
type ModelFunc func(in *Input, flags *Flags, out *Output)

// GTD7D calls f(in, flags, out).
func (f ModelFunc) GTD7D(in *Input, flags *Flags, out *Output) {
	f(in, flags, out)
}
